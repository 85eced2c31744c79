package pricing

import "time"

var fixedNow = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
