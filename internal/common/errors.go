package common

import "fmt"

var ErrInvalid = fmt.Errorf("invalid build parameters")
var ErrCorrupt = fmt.Errorf("corrupt or invalid data")
