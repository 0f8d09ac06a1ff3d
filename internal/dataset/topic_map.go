package dataset

// DefaultTopicMap maps curated Turkish topic names to the dataset's Common
// Core skill codes. Keys are lowercase.
var DefaultTopicMap = map[string][]string{
	"matematik":         {"8.NS.A.2-1", "7.EE.B.4a-1", "6.NS.B.3-3"},
	"sayılar":           {"8.NS.A.2-1", "6.NS.B.3-3", "8.NS.A.2-2"},
	"oran orantı":       {"7.RP.A.1", "7.RP.A.2", "7.RP.A.3"},
	"oran":              {"7.RP.A.1"},
	"orantı":            {"7.RP.A.2"},
	"denklem çözme":     {"6.EE.B.7", "7.EE.B.4a-1", "8.EE.C.7"},
	"denklemler":        {"6.EE.B.7", "8.EE.C.7"},
	"fonksiyonlar":      {"8.F.B.5", "8.F.A.1"},
	"veri":              {"8.SP.A.1"},
	"geometri":          {"8.G.A.3-1", "8.G.A.1"},
	"ifadeler":          {"7.EE.A.2"},
	"üslü sayılar":      {"8.EE.A.1"},
	"kareköklü sayılar": {"8.EE.A.2"},
	"olasılık":          {"7.SP.C.5"},
}
