package lib

import "strings"

func Name() string {
	return strings.ToUpper("lib")
}
