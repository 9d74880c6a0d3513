package salary

import "errors"

// ErrNoSalary is returned when an observation has no positive amount
var ErrNoSalary = errors.New("no usable salary data")
