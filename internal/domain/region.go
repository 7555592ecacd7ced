package domain

// Province is a top-level region. Its label in the encoded tables is
// "<letter> <name>".
type Province struct {
	Code   string `json:"code"`
	Letter string `json:"letter"`
	Name   string `json:"name"`
}

// City belongs to a province and owns its districts in table order.
type City struct {
	Code      string     `json:"code"`
	Letter    string     `json:"letter"`
	Name      string     `json:"name"`
	Districts []District `json:"districts"`
}

// District refers to its owning city by code only.
type District struct {
	Code     string `json:"code"`
	Letter   string `json:"letter"`
	Name     string `json:"name"`
	CityCode string `json:"city_code"`
}
