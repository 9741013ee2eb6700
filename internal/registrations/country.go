package registrations

import (
	"regexp"
	"strings"
)

// countryRule is one step of the location resolver. Rules run in order and the first
// rule that matches decides the country.
type countryRule struct {
	name  string
	match func(cleaned string) (string, bool)
}

// countryRules is evaluated top to bottom by ResolveCountry.
var countryRules = []countryRule{
	{name: "empty", match: matchEmpty},
	{name: "null-like", match: matchNullLike},
	{name: "nigeria-spelling", match: matchNigeriaSpelling},
	{name: "international-alias", match: matchLookup(internationalAliases)},
	{name: "nigerian-place", match: matchNigerianPlace},
	{name: "state-suffix", match: matchStateSuffix},
	{name: "non-location", match: matchNonLocation},
	{name: "country-name", match: matchLookup(countryNames)},
}

// ResolveCountry turns free-text location input ("Ikeja, Lagos", "nairobi", "Software
// Engineer", "n/a") into a country name. Anything it cannot place is attributed to
// DefaultCountry; this is a lossy choice made for a Nigeria-hosted event.
func ResolveCountry(raw string) string {
	cleaned := cleanLocation(raw)
	for _, r := range countryRules {
		if country, ok := r.match(cleaned); ok {
			return country
		}
	}
	return DefaultCountry
}

// ExplainCountry is ResolveCountry that also names the rule that decided.
func ExplainCountry(raw string) (country, rule string) {
	cleaned := cleanLocation(raw)
	for _, r := range countryRules {
		if country, ok := r.match(cleaned); ok {
			return country, r.name
		}
	}
	return DefaultCountry, "default"
}

const wrapCutset = "\"'`.,;:!?()[]{}<>-_/\\|*# \t"

func cleanLocation(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.Trim(s, wrapCutset)
	return strings.Join(strings.Fields(s), " ")
}

// locationSegments returns the whole string followed by its comma-separated parts,
// last part first ("ikeja, lagos, nigeria" -> whole, "nigeria", "lagos", "ikeja").
func locationSegments(s string) []string {
	segs := []string{s}
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return segs
	}
	for i := len(parts) - 1; i >= 0; i-- {
		p := strings.Trim(strings.TrimSpace(parts[i]), wrapCutset)
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

func matchEmpty(s string) (string, bool) {
	return DefaultCountry, s == ""
}

var nullLike = map[string]bool{
	"nil": true, "none": true, "n/a": true, "na": true, "null": true, "-": true,
	"nah": true, "no": true, "nothing": true, "not applicable": true, "undefined": true,
}

func matchNullLike(s string) (string, bool) {
	return DefaultCountry, nullLike[s]
}

var nigeriaPattern = regexp.MustCompile(`^nigeri[a-z]*$`)

var nigeriaSpellings = map[string]bool{
	"ng": true, "nga": true, "nige": true, "naija": true, "9ja": true,
	"nigera": true, "nigerai": true, "nigeira": true, "nijeria": true, "nigiria": true,
	"niegeria": true, "nigaria": true, "nigreia": true, "federal republic of nigeria": true,
}

func matchNigeriaSpelling(s string) (string, bool) {
	for _, seg := range locationSegments(s) {
		if nigeriaPattern.MatchString(seg) || nigeriaSpellings[seg] {
			return DefaultCountry, true
		}
	}
	return "", false
}

func matchLookup(table map[string]string) func(string) (string, bool) {
	return func(s string) (string, bool) {
		for _, seg := range locationSegments(s) {
			if country, ok := table[seg]; ok {
				return country, true
			}
		}
		return "", false
	}
}

// minReverseMatch guards the "keyword contains input" check so fragments like "a" or
// "uk" are not swallowed by long place names.
const minReverseMatch = 4

func matchNigerianPlace(s string) (string, bool) {
	for _, kw := range nigerianPlaces {
		if containsKeyword(s, kw) {
			return DefaultCountry, true
		}
		if len(s) >= minReverseMatch && strings.Contains(kw, s) {
			return DefaultCountry, true
		}
	}
	return "", false
}

func matchStateSuffix(s string) (string, bool) {
	if strings.Contains(s, "state") && !strings.Contains(s, "united") {
		return DefaultCountry, true
	}
	return "", false
}

func matchNonLocation(s string) (string, bool) {
	for _, kw := range nonLocationKeywords {
		if containsKeyword(s, kw) {
			return DefaultCountry, true
		}
	}
	return "", false
}

// shortKeyword is the length below which keywords must match a whole word.
const shortKeyword = 5

// containsKeyword reports whether kw occurs in s. Short keywords ("jos", "aba", "ceo")
// only match whole words so "san jose" or "alabama" are not taken for Nigerian towns.
func containsKeyword(s, kw string) bool {
	if len(kw) >= shortKeyword {
		return strings.Contains(s, kw)
	}
	return containsWord(s, kw)
}

func containsWord(s, word string) bool {
	if !strings.Contains(word, " ") {
		for _, tok := range tokens(s) {
			if tok == word {
				return true
			}
		}
		return false
	}
	return strings.Contains(" "+strings.Join(tokens(s), " ")+" ", " "+word+" ")
}

func tokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}

var internationalAliases = map[string]string{
	"nairobi": "Kenya", "mombasa": "Kenya", "kisumu": "Kenya",
	"accra": "Ghana", "kumasi": "Ghana", "tema": "Ghana", "takoradi": "Ghana",
	"johannesburg": "South Africa", "joburg": "South Africa", "cape town": "South Africa",
	"pretoria": "South Africa", "durban": "South Africa",
	"kigali": "Rwanda", "kampala": "Uganda", "dar es salaam": "Tanzania",
	"addis ababa": "Ethiopia", "cairo": "Egypt", "lome": "Togo", "lomé": "Togo",
	"cotonou": "Benin", "porto novo": "Benin", "porto-novo": "Benin",
	"dakar": "Senegal", "abidjan": "Côte d'Ivoire", "douala": "Cameroon", "yaounde": "Cameroon",
	"freetown": "Sierra Leone", "monrovia": "Liberia", "banjul": "Gambia", "lusaka": "Zambia",
	"harare": "Zimbabwe", "kinshasa": "DR Congo", "casablanca": "Morocco", "tunis": "Tunisia",
	"london": "United Kingdom", "manchester": "United Kingdom", "birmingham": "United Kingdom",
	"edinburgh": "United Kingdom", "dublin": "Ireland",
	"dubai": "United Arab Emirates", "abu dhabi": "United Arab Emirates",
	"doha": "Qatar", "riyadh": "Saudi Arabia",
	"toronto": "Canada", "vancouver": "Canada", "montreal": "Canada", "calgary": "Canada",
	"new york": "United States", "nyc": "United States", "san francisco": "United States",
	"los angeles": "United States", "houston": "United States", "atlanta": "United States",
	"berlin": "Germany", "munich": "Germany", "paris": "France", "amsterdam": "Netherlands",
	"lisbon": "Portugal", "madrid": "Spain", "barcelona": "Spain", "zug": "Switzerland",
	"istanbul": "Turkey", "türkiye": "Turkey", "turkiye": "Turkey",
	"singapore": "Singapore", "bangalore": "India", "bengaluru": "India", "mumbai": "India",
	"delhi": "India", "new delhi": "India", "hong kong": "Hong Kong",
}

var countryNames = map[string]string{
	"usa": "United States", "us": "United States", "u.s": "United States", "u.s.a": "United States",
	"united states": "United States", "united states of america": "United States", "america": "United States",
	"uk": "United Kingdom", "u.k": "United Kingdom", "united kingdom": "United Kingdom",
	"england": "United Kingdom", "scotland": "United Kingdom", "wales": "United Kingdom",
	"great britain": "United Kingdom", "britain": "United Kingdom",
	"ghana": "Ghana", "kenya": "Kenya", "south africa": "South Africa", "rsa": "South Africa",
	"rwanda": "Rwanda", "uganda": "Uganda", "tanzania": "Tanzania", "ethiopia": "Ethiopia",
	"egypt": "Egypt", "cameroon": "Cameroon", "benin": "Benin", "benin republic": "Benin",
	"republic of benin": "Benin", "togo": "Togo", "senegal": "Senegal",
	"ivory coast": "Côte d'Ivoire", "cote d'ivoire": "Côte d'Ivoire", "côte d'ivoire": "Côte d'Ivoire",
	"niger": "Niger", "niger republic": "Niger", "chad": "Chad", "sierra leone": "Sierra Leone",
	"liberia": "Liberia", "gambia": "Gambia", "the gambia": "Gambia", "zambia": "Zambia",
	"zimbabwe": "Zimbabwe", "botswana": "Botswana", "morocco": "Morocco", "tunisia": "Tunisia",
	"algeria": "Algeria", "dr congo": "DR Congo", "drc": "DR Congo",
	"canada": "Canada", "germany": "Germany", "france": "France", "netherlands": "Netherlands",
	"holland": "Netherlands", "belgium": "Belgium", "switzerland": "Switzerland", "austria": "Austria",
	"spain": "Spain", "italy": "Italy", "portugal": "Portugal", "ireland": "Ireland",
	"sweden": "Sweden", "norway": "Norway", "denmark": "Denmark", "finland": "Finland",
	"poland": "Poland", "turkey": "Turkey", "uae": "United Arab Emirates",
	"united arab emirates": "United Arab Emirates", "qatar": "Qatar", "saudi arabia": "Saudi Arabia",
	"india": "India", "pakistan": "Pakistan", "bangladesh": "Bangladesh", "china": "China",
	"japan": "Japan", "south korea": "South Korea", "korea": "South Korea",
	"malaysia": "Malaysia", "philippines": "Philippines", "indonesia": "Indonesia",
	"australia": "Australia", "new zealand": "New Zealand",
	"brazil": "Brazil", "mexico": "Mexico", "argentina": "Argentina",
}

// nigerianStates are the 36 states plus the FCT. Each is also matched with a "state" suffix.
var nigerianStates = []string{
	"abia", "adamawa", "akwa ibom", "anambra", "bauchi", "bayelsa", "benue", "borno",
	"cross river", "delta", "ebonyi", "edo", "ekiti", "enugu", "gombe", "imo", "jigawa",
	"kaduna", "kano", "katsina", "kebbi", "kogi", "kwara", "lagos", "nasarawa", "niger state",
	"ogun", "ondo", "osun", "oyo", "plateau", "rivers", "sokoto", "taraba", "yobe", "zamfara",
	"fct", "federal capital territory",
}

var nigerianCities = []string{
	"abuja", "ibadan", "port harcourt", "portharcourt", "ph", "benin city", "onitsha", "aba",
	"jos", "ilorin", "owerri", "warri", "calabar", "uyo", "akure", "abeokuta", "osogbo",
	"oshogbo", "ogbomosho", "ogbomoso", "ile-ife", "ile ife", "ife", "zaria", "maiduguri",
	"yola", "makurdi", "minna", "lokoja", "asaba", "awka", "nsukka", "umuahia", "abakaliki",
	"ado ekiti", "ado-ekiti", "ijebu", "ijebu ode", "sagamu", "shagamu", "ota", "ikorodu",
	"badagry", "epe", "jalingo", "damaturu", "dutse", "birnin kebbi", "gusau", "lafia",
	"yenagoa", "ilesa", "ilesha", "iwo", "ede", "okene", "auchi", "ekpoma", "sapele",
	"ughelli", "effurun", "nnewi", "orlu", "okigwe", "afikpo", "ikot ekpene", "eket",
	"ogoja", "obudu", "keffi", "suleja", "kafanchan", "bida", "offa", "ijebu-ode",
}

var lagosNeighbourhoods = []string{
	"lekki", "ikeja", "yaba", "surulere", "victoria island", "vi", "ikoyi", "ajah", "festac",
	"gbagada", "ogba", "agege", "oshodi", "magodo", "ojota", "ketu", "mushin", "apapa",
	"ajegunle", "ogudu", "isolo", "ejigbo", "egbeda", "ipaja", "alimosho", "sangotedo",
	"ibeju", "ibeju-lekki", "ojo", "okota", "anthony", "ilupeju", "oniru", "chevron",
	"ikotun", "iyana ipaja", "akoka", "bariga", "ebute metta", "obalende", "ogudu",
	"gwarinpa", "wuse", "maitama", "garki", "kubwa", "lugbe", "jabi", "asokoro", "utako",
	"katampe", "kuje", "bwari", "gwagwalada", "nyanya", "karu", "mararaba", "life camp",
}

var nigerianPlaces = buildNigerianPlaces()

func buildNigerianPlaces() []string {
	places := make([]string, 0, len(nigerianStates)*2+len(nigerianCities)+len(lagosNeighbourhoods))
	for _, st := range nigerianStates {
		places = append(places, st)
		if !strings.HasSuffix(st, "state") && !strings.Contains(st, "territory") {
			places = append(places, st+" state")
		}
	}
	places = append(places, nigerianCities...)
	places = append(places, lagosNeighbourhoods...)
	return places
}

// nonLocationKeywords mark answers that describe a job or organization instead of a place.
var nonLocationKeywords = []string{
	"developer", "engineer", "student", "founder", "ceo", "cto", "designer", "manager",
	"analyst", "consultant", "freelance", "university", "polytechnic", "college", "school",
	"institute", "academy", "ltd", "limited", "inc", "llc", "plc", "company", "enterprise",
	"ventures", "solutions", "labs", "hub", "agency", "web3", "blockchain", "crypto", "tech",
	"dao", "defi", "nft", "startup",
}
