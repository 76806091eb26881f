package render

// ScoreColors is the colorblind-safe diverging scale for signed scores:
// blue for downregulated, orange for upregulated.
var ScoreColors = map[string]string{
	"negative": "#2166AC",
	"neutral":  "#F7F7F7",
	"positive": "#B35806",
}

// DatabaseColors assigns each source database an Okabe-Ito-derived color,
// validated for deuteranopia and protanopia. The mito collections share
// violet hues to signal relatedness; TE tables use the red spectrum.
var DatabaseColors = map[string]string{
	"Hallmark":     "#E69F00",
	"KEGG":         "#56B4E9",
	"Reactome":     "#009E73",
	"WikiPathways": "#F0E442",
	"GO_BP":        "#0072B2",
	"GO_MF":        "#D55E00",
	"GO_CC":        "#CC79A7",
	"MitoPathways": "#5E4FA2",
	"MitoXplorer":  "#9E9AC8",
	"CollecTRI":    "#882255",
	"PROGENy":      "#44AA99",
	"TransportDB":  "#DDCC77",
	"GATOM":        "#117733",
	"TE_Class":     "#8B0000",
	"TE_Family":    "#DC143C",
	"TE_Subfamily": "#FF6347",
	"TF_Targets":   "#AA4499",
}

// fallbackColor is used for databases outside the known palette.
const fallbackColor = "#999999"

// ColorForDatabase returns the palette color for a database.
func ColorForDatabase(db string) string {
	if c, ok := DatabaseColors[db]; ok {
		return c
	}
	return fallbackColor
}

// ScoreColorMax caps the signed-significance color scale so a handful of
// extreme records cannot wash out everything else.
const ScoreColorMax = 30.0

// NESColorMax caps the raw-score color scale.
const NESColorMax = 3.5
