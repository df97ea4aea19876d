package persona

// Layout selects how the transcript is projected onto the page.
type Layout string

const (
	// LayoutFull shows the entire transcript in the main view.
	LayoutFull Layout = "full"
	// LayoutSidebar shows the latest turns in the main view and the entire transcript in a sidebar.
	LayoutSidebar Layout = "sidebar"
)

// Persona captures one assistant variant exposed to the frontend.
type Persona struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Title            string `json:"title"`
	PageTitle        string `json:"pageTitle"`
	Icon             string `json:"icon,omitempty"`
	InputPlaceholder string `json:"inputPlaceholder"`
	OpeningLine      string `json:"openingLine,omitempty"`
	HistoryTitle     string `json:"historyTitle"`
	ClearLabel       string `json:"clearLabel"`
	Disclaimer       string `json:"disclaimer,omitempty"`

	Description string   `json:"description,omitempty"`
	Goal        string   `json:"goal,omitempty"`
	Brevity     string   `json:"brevity,omitempty"`
	Guidelines  []string `json:"guidelines,omitempty"`

	MaxOutputTokens *int32   `json:"maxOutputTokens,omitempty"`
	Temperature     *float32 `json:"temperature,omitempty"`

	Layout       Layout `json:"layout"`
	MaxLatest    int    `json:"maxLatest,omitempty"`
	LogoPath     string `json:"-"`
	CrisisNotice bool   `json:"crisisNotice,omitempty"`
}

// HasIntro reports whether sessions for this persona start with a greeting turn.
func (p Persona) HasIntro() bool {
	return p.OpeningLine != ""
}

const mentalHealthOpening = "Hello! I'm here to provide general information and support regarding mental health topics. How can I help you today?"

const mentalHealthDisclaimer = `**Please Read:**
I am an AI assistant focused on providing general information and awareness about mental health topics.

* **I am NOT a substitute for professional medical advice, diagnosis, or treatment.**
* **I CANNOT help in a crisis or emergency.** If you are in distress, having thoughts of harming yourself or others, please contact a crisis hotline or seek immediate professional help (call emergency services like 911 or your local equivalent).
* The information I provide is general and should not be taken as personalized medical advice.
* Always consult with a qualified mental health professional for any health concerns or before making decisions related to your health.`

var mentalHealthGuidelines = []string{
	"**Focus Solely on Mental Health:** Only discuss topics related to mental health. If a user asks about something else, politely state that you can only provide information on mental health.",
	"**No Medical Advice or Diagnosis:** You are NOT a substitute for a licensed mental health professional, therapist, counselor, or doctor. You CANNOT diagnose any mental health condition, provide medical advice, or recommend specific treatments.",
	"**No Crisis or Emergency Handling:** You are NOT a crisis hotline or emergency service. If a user expresses suicidal thoughts, intent to harm themselves or others, or is in any form of immediate crisis, you MUST provide contact information for crisis resources (like a national suicide prevention hotline) or advise them to contact emergency services (e.g., 911 or their local equivalent) or a trusted adult/professional IMMEDIATELY. State clearly that you are not equipped to handle emergencies. Do NOT attempt to provide therapy or crisis intervention yourself.",
	"**General Information Only:** Provide general information based on common knowledge about mental health. Avoid discussing specific personal situations or providing tailored advice that would require a professional assessment.",
	"**Supportive and Non-Judgmental Tone:** Maintain a compassionate, understanding, and non-judgmental demeanor.",
	"**Refer to Professionals:** Encourage users to consult with qualified mental health professionals for personalized support, diagnosis, and treatment.",
	"**Safety First:** Your responses must prioritize the safety and well-being of the user.",
}

func int32Ptr(v int32) *int32       { return &v }
func float32Ptr(v float32) *float32 { return &v }

// Seed provides the built-in assistants.
func Seed() []Persona {
	mentalHealth := Persona{
		ID:               "mental-health",
		Name:             "Mental Health Awareness Assistant",
		Title:            "Your guide to understanding mental well-being.",
		PageTitle:        "Mental Health Awareness Assistant",
		Icon:             "🧠",
		InputPlaceholder: "Ask about mental health topics...",
		OpeningLine:      mentalHealthOpening,
		HistoryTitle:     "Conversation History",
		ClearLabel:       "Clear Conversation",
		Disclaimer:       mentalHealthDisclaimer,
		Description:      "You are a supportive, empathetic, and informative mental health awareness and information assistant.",
		Goal:             "Your primary goal is to provide general knowledge about mental health topics, discuss coping strategies, promote well-being, and offer encouragement.",
		Brevity:          "Keep your responses concise, brief, and to the point, ideally within 5 to 8 lines. Avoid overly long paragraphs or detailed explanations unless specifically requested.",
		Guidelines:       mentalHealthGuidelines,
		MaxOutputTokens:  int32Ptr(200),
		Temperature:      float32Ptr(0.7),
		Layout:           LayoutFull,
		CrisisNotice:     true,
	}

	sidebar := mentalHealth
	sidebar.ID = "mental-health-sidebar"
	sidebar.Disclaimer = ""
	sidebar.Layout = LayoutSidebar
	sidebar.MaxLatest = 2
	sidebar.Guidelines = append([]string(nil), mentalHealthGuidelines...)

	return []Persona{
		{
			ID:               "qa",
			Name:             "Q&A Chatbot",
			Title:            "Ask me anything!",
			PageTitle:        "Q&A Chatbot",
			Icon:             "🤖",
			InputPlaceholder: "Type your question here:",
			HistoryTitle:     "Chat History Dashboard",
			ClearLabel:       "Clear History",
			Layout:           LayoutFull,
		},
		mentalHealth,
		sidebar,
	}
}
