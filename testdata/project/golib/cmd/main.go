package main

import (
	"fmt"

	"example.com/proj/golib/lib"
)

func main() {
	fmt.Println(lib.Name())
}
