package common

func AlignUp(x, a uint64) uint64 {
    if a == 0 { return x }
    r := x % a
    if r == 0 { return x }
    return x + (a - r)
}

// PadTo returns how many bytes are missing from x up to the next multiple of a.
func PadTo(x, a uint64) uint64 {
    return AlignUp(x, a) - x
}

// CeilDiv divides rounding up. CeilDiv(x, 0) == x to keep AlignUp's convention.
func CeilDiv(x, a uint64) uint64 {
    if a == 0 { return x }
    return (x + a - 1) / a
}
