package ircfmt_test

import (
	"fmt"

	"github.com/soyeahso/irccord/internal/ircfmt"
)

func ExampleRender() {
	fmt.Println(ircfmt.Render("Hello \x02world\x02, *literally*"))
	// Output: Hello **world**, \*literally\*
}

func ExampleParseEmbed() {
	e := ircfmt.ParseEmbed("\x0303\x02Deploy finished\x02\nAll checks passed")
	fmt.Println(e.Title)
	fmt.Println(e.Description)
	fmt.Printf("#%06x\n", e.Colour)
	// Output:
	// Deploy finished
	// All checks passed
	// #2ecc71
}
