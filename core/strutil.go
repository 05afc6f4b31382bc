package core

// Number formatting without fmt, which pulls reflection into the firmware image.

func u64toa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

func utoa(n uint32) string {
	return u64toa(uint64(n))
}

func itoa(n int) string {
	if n < 0 {
		return "-" + u64toa(uint64(-int64(n)))
	}
	return u64toa(uint64(n))
}

// valueToString renders a dictionary constant.
func valueToString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return itoa(val)
	case int32:
		return itoa(int(val))
	case uint32:
		return utoa(val)
	case uint64:
		return u64toa(val)
	case bool:
		if val {
			return "1"
		}
		return "0"
	default:
		return ""
	}
}
