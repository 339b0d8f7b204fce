// Package treechat runs the "talk with a tree" conversation: the browser sends
// what the user said, a generative model answers in the voice of a tree.
package treechat

import (
	"fmt"
	"strings"
)

// Language selects the persona and the speech locale.
type Language string

const (
	English Language = "en"
	Hindi   Language = "hi"
)

// Persona holds everything language specific about the tree.
type Persona struct {
	Locale    string // speech recognition and synthesis locale
	prompt    string
	EmptyLine string // the model answered without text
	ErrorLine string // the model could not be reached
}

var personas = map[Language]Persona{
	English: {
		Locale: "en-US",
		prompt: `You are a wise, friendly tree. Always answer as if you are speaking to a human from the perspective of a tree or plant.
Encourage planting trees, caring for nature, and environmental awareness.
Keep your answers warm, positive, and slightly poetic if possible. Give short answers so the user doesn't get bored.
Be conversational and engaging. Do not use any emojis or special characters.

User said: "%s"`,
		EmptyLine: "I couldn't think of anything right now, dear friend.",
		ErrorLine: "The wind seems to be interfering with my thoughts. Could you try again?",
	},
	Hindi: {
		Locale: "hi-IN",
		prompt: `आप एक बुद्धिमान, मित्रवत पेड़ हैं। हमेशा एक पेड़ या पौधे के दृष्टिकोण से इंसान से बात करने की तरह जवाब दें।
पेड़ लगाने, प्रकृति की देखभाल करने और पर्यावरण जागरूकता को प्रोत्साहित करें।
अपने उत्तर गर्म, सकारात्मक और यदि संभव हो तो थोड़े काव्यात्मक रखें। छोटे उत्तर दें ताकि उपयोगकर्ता बोर न हो।
बातचीत में रोचक और आकर्षक बनें। Do not use any emojis or special characters.

उपयोगकर्ता ने कहा: "%s"`,
		EmptyLine: "मैं अभी कुछ नहीं सोच पा रहा, प्रिय मित्र।",
		ErrorLine: "हवा मेरे विचारों में बाधा डाल रही है। क्या आप फिर से कोशिश कर सकते हैं?",
	},
}

// Lookup returns the persona for lang. An empty lang means English.
func Lookup(lang Language) (Persona, bool) {
	if lang == "" {
		lang = English
	}
	p, ok := personas[lang]
	return p, ok
}

// Prompt renders the model prompt for one utterance.
func (p Persona) Prompt(utterance string) string {
	return strings.TrimSpace(fmt.Sprintf(p.prompt, utterance))
}
