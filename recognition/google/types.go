package google

type recognizeRequest struct {
	Config recognitionConfig `json:"config"`
	Audio  recognitionAudio  `json:"audio"`
}

type recognitionConfig struct {
	Encoding                   string             `json:"encoding"`
	SampleRateHertz            int                `json:"sampleRateHertz"`
	AudioChannelCount          int                `json:"audioChannelCount"`
	LanguageCode               string             `json:"languageCode"`
	Model                      string             `json:"model,omitempty"`
	EnableAutomaticPunctuation bool               `json:"enableAutomaticPunctuation"`
	DiarizationConfig          *diarizationConfig `json:"diarizationConfig,omitempty"`
}

type diarizationConfig struct {
	EnableSpeakerDiarization bool `json:"enableSpeakerDiarization"`
	MinSpeakerCount          int  `json:"minSpeakerCount,omitempty"`
	MaxSpeakerCount          int  `json:"maxSpeakerCount,omitempty"`
}

// recognitionAudio carries exactly one of URI or Content.
type recognitionAudio struct {
	URI     string `json:"uri,omitempty"`
	Content string `json:"content,omitempty"`
}

type operation struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Metadata struct {
		ProgressPercent int `json:"progressPercent"`
	} `json:"metadata"`
	Error    *status            `json:"error,omitempty"`
	Response *recognizeResponse `json:"response,omitempty"`
}

type status struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type recognizeResponse struct {
	Results []speechResult `json:"results"`
}

type speechResult struct {
	Alternatives []alternative `json:"alternatives"`
	LanguageCode string        `json:"languageCode"`
}

type alternative struct {
	Transcript string     `json:"transcript"`
	Confidence float64    `json:"confidence"`
	Words      []wordInfo `json:"words"`
}

type wordInfo struct {
	Word       string `json:"word"`
	SpeakerTag int    `json:"speakerTag"`
}
