// Package detection forwards leaf images to the disease classifier and adds
// cause and cure guidance for known diseases.
package detection

// Guidance is the local cause/cure text for a disease label.
type Guidance struct {
	Cause string `json:"cause"`
	Cure  string `json:"cure"`
}

// diseases is keyed by the exact label the classifier returns.
var diseases = map[string]Guidance{
	"Yellow_Leaf_Curl_Virus": {
		Cause: "This disease is caused by the Tomato Yellow Leaf Curl Virus (TYLCV). It's primarily transmitted by the silverleaf whitefly when it feeds on the plant.",
		Cure:  "There is no cure for an infected plant; remove and destroy it immediately. Manage whitefly populations using insecticides or by introducing natural predators.",
	},
	"bacterial_spot": {
		Cause: "Caused by several species of Xanthomonas bacteria. The bacteria spread easily through splashing water from rain or irrigation.",
		Cure:  "Apply copper-based bactericides as a preventive spray. Avoid working with plants when they are wet and ensure good air circulation.",
	},
	"early_blight": {
		Cause: "This is caused by the fungus Alternaria solani. The fungus survives in the soil and on infected plant debris from previous seasons.",
		Cure:  "Treat with fungicides containing chlorothalonil or mancozeb. Practice crop rotation and mulch around the base of plants to prevent fungal spores from splashing up.",
	},
	"late_blight": {
		Cause: "Caused by the water mold Phytophthora infestans. It thrives and spreads rapidly in cool, moist conditions.",
		Cure:  "Apply preventative fungicides, especially before cool, wet weather is expected. Ensure proper spacing between plants for good airflow to keep leaves dry.",
	},
	"leaf_mold": {
		Cause: "This disease is caused by the fungus Passalora fulva. It is most common in greenhouses with high humidity and poor air circulation.",
		Cure:  "Improve ventilation to lower humidity around the plants. Apply fungicides containing copper or mancozeb, and remove lower infected leaves.",
	},
	"mosaic_virus": {
		Cause: "Caused by various viruses, most commonly the Tobacco Mosaic Virus (TMV) or Tomato Mosaic Virus (ToMV). It spreads through infected seeds, sap, or by insects.",
		Cure:  "No cure exists; infected plants must be removed and destroyed to prevent spread. Practice good sanitation by washing hands and tools between plants.",
	},
	"septoria_leaf_spot": {
		Cause: "This is a fungal disease caused by Septoria lycopersici. Its spores spread via splashing water and can survive on old plant debris.",
		Cure:  "Treat with fungicides containing chlorothalonil or copper. Remove and destroy infected leaves and avoid overhead watering.",
	},
	"target_Spot": {
		Cause: "Caused by the fungus Corynespora cassiicola. It is most severe during periods of warm, humid, and rainy weather.",
		Cure:  "Apply fungicides containing chlorothalonil or mancozeb. Prune lower branches to improve air circulation and remove infected plant debris.",
	},
	"two-spotted_spider_mite": {
		Cause: "This is not a disease but an infestation by the pest Tetranychus urticae. These mites thrive in hot, dry conditions, sucking cell contents from leaves.",
		Cure:  "Spray plants with horticultural oil or insecticidal soap, ensuring complete coverage. Introduce natural predators like ladybugs or predatory mites for biological control.",
	},
}

// Lookup returns guidance for an exact classifier label.
func Lookup(name string) (Guidance, bool) {
	g, ok := diseases[name]
	return g, ok
}
