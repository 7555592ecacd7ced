// Package domain models daily temperature history for Chinese
// administrative regions.
//
// # Data Source
//
// History originates from the 2345 weather site (https://tianqi.2345.com).
// Its history endpoint returns one calendar month per request for a single
// area as an HTML fragment wrapped in a JSON envelope:
//
//	GET /Pc/GetHistory?areaInfo[areaId]=54511&areaInfo[areaType]=2&date[year]=2024&date[month]=01
//	{"code":1,"data":{"html":"<table class=\"history-table\">...</table>"}}
//
// The area type is always "2" (a weather station area). The site blocks
// cross-origin browser requests, which is why a relay can sit between the
// service and the upstream.
//
// # History Fragment Conventions
//
// Each fragment holds a table of class "history-table". The first row is a
// header. Data rows carry:
//
//	cell 0  date and weekday   "2024-01-01 周一"  → date "2024-01-01"
//	cell 1  daily high         "5°"               → 5
//	cell 2  daily low          "-2°"              → -2
//
// Later cells (weather, wind, air quality) are ignored. A fragment containing
// the marker "暂无" ("none yet") means the month has no data.
//
// # Months
//
// Ranges are decomposed into (year, month) pairs with zero-padded months,
// e.g. {"2024", "01"}. A range may span at most [MaxMonthRange] months.
// See [MonthsBetween].
//
// # Series
//
// Chart lines are built by unioning the dates of every series and looking up
// each series' high or low value per date. Missing dates stay nil. See
// [BuildChart].
package domain
