package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Denver")
	if err != nil {
		panic(err)
	}
}

// force the timezone to the portal operator's base because our
// servers sometimes end up on the east coast which shifts the
// calendar date produced by <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}
