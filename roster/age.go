package roster

import "time"

// Age returns the completed years between birthday and now. A 29 February
// birthday is reached on 1 March in non-leap years.
func Age(birthday, now time.Time) int {
	age := now.Year() - birthday.Year()
	if now.Month() < birthday.Month() || (now.Month() == birthday.Month() && now.Day() < birthday.Day()) {
		age--
	}
	return age
}
