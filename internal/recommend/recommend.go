// Package recommend serves plant recommendations for a location.
package recommend

import (
	"github.com/treeplant/web/internal/models"
)

// PageSize is the number of recommendations per page.
const PageSize = 12

// maxPages caps pagination; the last page holds everything after the second.
const maxPages = 3

// TotalPages returns 0 for no results, 1 up to 12, 2 up to 24, and 3 otherwise.
func TotalPages(count int) int {
	switch {
	case count == 0:
		return 0
	case count <= PageSize:
		return 1
	case count <= 2*PageSize:
		return 2
	}
	return maxPages
}

// Page returns the 1-based page of list. Page 3 holds everything after item 24.
// Out-of-range pages return an empty slice.
func Page(list []models.Recommendation, page int) []models.Recommendation {
	total := TotalPages(len(list))
	if page < 1 || page > total {
		return []models.Recommendation{}
	}
	start := (page - 1) * PageSize
	end := start + PageSize
	if page == maxPages || end > len(list) {
		end = len(list)
	}
	return list[start:end]
}

// PopularPlant is an entry in the static list shown before any search.
type PopularPlant struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Popular is the static list of commonly planted species.
var Popular = []PopularPlant{
	{"Banyan Tree (Ficus benghalensis)", "The national tree of India, known for its vast canopy and aerial roots. It symbolizes longevity and shelter.", "/banyan.jpg"},
	{"Tulsi (Holy Basil)", "A sacred herb in India, known for its medicinal and spiritual value. Commonly used in Ayurveda and worship.", "/tulsi.jpg"},
	{"Neem (Azadirachta indica)", "A medicinal tree with antibacterial and antifungal properties. Widely used in Ayurveda and traditional remedies.", "/neem.jpg"},
	{"Aloe Vera", "A succulent with thick, fleshy leaves containing soothing gel. Widely used for skincare and home remedies.", "/alovera.jpg"},
	{"Peepal (Ficus religiosa)", "A sacred tree in Hinduism and Buddhism. Known for producing oxygen even at night and symbolizing spirituality.", "/peepal.jpg"},
	{"Money Plant (Pothos)", "A fast-growing indoor vine believed to bring prosperity. Also acts as a natural air purifier.", "/moneyplant.jpg"},
	{"Mango (Mangifera indica)", "The 'king of fruits' tree native to India. Its fruits are loved worldwide, and its leaves are used in rituals.", "/mango.jpg"},
	{"Curry Leaf Plant", "An aromatic plant whose leaves are essential in Indian cooking. Also valued for its medicinal benefits.", "/curryleaf.jpg"},
	{"Jamun (Syzygium cumini)", "A fruit-bearing tree valued for its sweet-sour purple fruits. Its seeds and bark are used in traditional medicine.", "/jamun.jpg"},
	{"Hibiscus", "A flowering shrub with large colorful blooms. Used in hair care, worship, and as an ornamental plant.", "/hibiscus.jpg"},
	{"Gulmohar (Delonix regia)", "A striking ornamental tree with bright red-orange flowers. Often planted along roadsides and gardens for shade and beauty.", "/gulmahor.jpg"},
	{"Marigold", "A hardy plant with bright yellow-orange flowers. Commonly used in decorations and religious ceremonies.", "/marigold.jpg"},
	{"Indian Gooseberry / Amla (Phyllanthus emblica)", "A small deciduous tree producing vitamin C-rich fruits. Widely used in Ayurveda, hair care, and health tonics.", "/amla.jpg"},
	{"Peace Lily", "An elegant indoor plant with white blooms. Known for improving indoor air quality and thriving in low light.", "/peacelily.jpg"},
	{"Snake Plant", "A resilient plant with upright sword-like leaves. Produces oxygen at night and removes toxins from air.", "/snakeplant.jpg"},
	{"Lemongrass", "A tall, lemon-scented grass used in teas and cooking. Also acts as a natural mosquito repellent.", "/lemongrass.jpg"},
}
