package date_test

import (
	"fmt"

	"github.com/kintreehq/kintree/pkg/date"
)

func ExampleParse() {
	year, _ := date.Parse("1948")
	full, _ := date.Parse("1948-05-12")
	unset, _ := date.Parse("")

	fmt.Println(year)
	fmt.Println(full)
	fmt.Println(unset.IsZero())
	// Output:
	// 1948
	// 1948-05-12
	// true
}

func ExampleCompare() {
	a, _ := date.Parse("1948")
	b, _ := date.Parse("1972")
	c, _ := date.Parse("1972-01-30")

	if cmp, ok := date.Compare(a, b); ok {
		fmt.Println("years comparable:", cmp < 0)
	}
	if _, ok := date.Compare(a, c); !ok {
		fmt.Println("mixed precision is indeterminate")
	}
	// Output:
	// years comparable: true
	// mixed precision is indeterminate
}
