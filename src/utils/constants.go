package utils

const (
	FlashSuccess = "success"
	FlashError   = "error"
)

const (
	SessionCookieName = "jwt"
	FlashCookieName   = "flash"
)

// ChartColors is the palette used for allocation charts, cycled by index.
var ChartColors = []string{
	"#ffa366",
	"#ff8080",
	"#80b3ff",
	"#a3d977",
	"#c285ff",
	"#80e6d4",
	"#ffb366",
	"#ff6666",
	"#80b366",
	"#e680ff",
	"#808080",
	"#b3a3ff",
	"#80d4cc",
}

// GetChartColor returns a color from the chart color palette
func GetChartColor(index int) string {
	return ChartColors[index%len(ChartColors)]
}
