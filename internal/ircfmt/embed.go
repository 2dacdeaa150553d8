package ircfmt

import (
	"regexp"
	"strconv"
)

// palette maps IRC colour indices to RGB values. 0-15 follow the classic mIRC
// colours (using Discord's own shades where one exists), 16-98 are the
// extended IRC colour ramp.
var palette = [...]int{
	0xffffff, // white
	0x000000, // black
	0x3498db, // blue
	0x2ecc71, // green
	0xe74c3c, // red
	0xd2691e, // brown
	0xe91e63, // magenta
	0xe67e22, // orange
	0xfee75c, // yellow
	0x57f287, // light green
	0x00ffff, // cyan
	0xe0ffff, // light cyan
	0xadd8e6, // light blue
	0xffc0cb, // pink
	0x607d8b, // grey
	0x979c9f, // light grey

	0x470000, 0x472100, 0x474700, 0x324700, 0x004700, 0x00472c, 0x004747,
	0x002747, 0x000047, 0x2e0047, 0x470047, 0x47002a, 0x740000, 0x743a00,
	0x747400, 0x517400, 0x007400, 0x007449, 0x007474, 0x004074, 0x000074,
	0x4b0074, 0x740074, 0x740045, 0xb50000, 0xb56300, 0xb5b500, 0x7db500,
	0x00b500, 0x00b571, 0x00b5b5, 0x0063b5, 0x0000b5, 0x7500b5, 0xb500b5,
	0xb5006b, 0xff0000, 0xff8c00, 0xffff00, 0xb2ff00, 0x00ff00, 0x00ffa0,
	0x00ffff, 0x008cff, 0x0000ff, 0xa500ff, 0xff00ff, 0xff0098, 0xff5959,
	0xffb459, 0xffff71, 0xcfff60, 0x6fff6f, 0x65ffc9, 0x6dffff, 0x59b4ff,
	0x5959ff, 0xc459ff, 0xff66ff, 0xff59bc, 0xff9c9c, 0xffd39c, 0xffff9c,
	0xe2ff9c, 0x9cff9c, 0x9cffdb, 0x9cffff, 0x9cd3ff, 0x9c9cff, 0xdc9cff,
	0xff9cff, 0xff94d3, 0x000000, 0x131313, 0x282828, 0x363636, 0x4d4d4d,
	0x656565, 0x818181, 0x9f9f9f, 0xbcbcbc, 0xe2e2e2, 0xffffff,
}

// Colour returns the RGB value of an IRC colour index.
func Colour(index int) (int, bool) {
	if index < 0 || index >= len(palette) {
		return 0, false
	}
	return palette[index], true
}

var (
	embedColourRe = regexp.MustCompile(`(?s)^(?:\x03([0-9]{1,2})?(?:,([0-9]{1,2}))?)?(.*)$`)
	embedTitleRe  = regexp.MustCompile(`(?s)^\x02([^\n]+)(?:\x02(?:\x03(?:99(?:,99)?)?)?|\x0f)\n(.*)$`)
)

// Embed is the raw (unrendered) content of a NOTICE destined for a Discord
// embed.
type Embed struct {
	Title       string
	Description string

	// Text is everything after the colour code, before title detection.
	Text string

	// Colour is the accent colour; HasColour is false when the text had no
	// leading colour code or its index is outside the palette.
	Colour    int
	HasColour bool
}

// ParseEmbed splits NOTICE text into an embed. A leading colour code selects
// the accent colour. A first line wrapped in bold and followed by a newline
// becomes the title:
//
//	"\x02Title\x02\nBody"
func ParseEmbed(text string) Embed {
	var e Embed

	m := embedColourRe.FindStringSubmatch(text)
	if m[1] != "" {
		if i, err := strconv.Atoi(m[1]); err == nil {
			e.Colour, e.HasColour = Colour(i)
		}
	}
	body := m[3]
	e.Text = body

	if t := embedTitleRe.FindStringSubmatch(body); t != nil {
		e.Title = t[1]
		body = t[2]
	}
	e.Description = body
	return e
}
