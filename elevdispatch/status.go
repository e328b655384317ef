package elevdispatch

// CarStatus is a point-in-time copy of one car. Mutating it never affects the car.
type CarStatus struct {
	ID           int       `json:"id"`
	Floor        int       `json:"floor"`
	Direction    Direction `json:"direction"`
	Destinations []int     `json:"destinations"`
}

// Status is a point-in-time copy of the whole fleet.
type Status struct {
	Step    int         `json:"step"`
	Cars    []CarStatus `json:"cars"`
	Pending int         `json:"pending"`
}
