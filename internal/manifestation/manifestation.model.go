package manifestation

import "time"

type FormData struct {
	// Personal details
	Name       string `json:"name"`
	BirthDate  string `json:"birthDate"`
	Nakshatra  string `json:"nakshatra"`
	BirthTime  string `json:"birthTime"`
	BirthPlace string `json:"birthPlace"`
	Lagna      string `json:"lagna"`
	StarSign   string `json:"starSign,omitempty"`
	// Personal growth
	Strengths           string `json:"strengths"`
	AreasOfImprovement  string `json:"areasOfImprovement"`
	GreatestAchievement string `json:"greatestAchievement"`
	LastYearAchievement string `json:"lastYearAchievement"`
	NextYearGoals       string `json:"nextYearGoals"`
	LifeGoals           string `json:"lifeGoals"`
	HowToBeRemembered   string `json:"howToBeRemembered"`
	ManifestationWish   string `json:"manifestationWish"`
}

// SavedManifestation is one entry of a visitor's history blob.
type SavedManifestation struct {
	ID        int64     `json:"id"`
	Content   string    `json:"content"`
	AudioPath *string   `json:"audioPath"`
	CreatedAt time.Time `json:"createdAt"`
	FormData  *FormData `json:"formData"`
}

// LifeGoals returns the originating life goals, or "" for records saved without form data.
func (m SavedManifestation) LifeGoals() string {
	if m.FormData == nil {
		return ""
	}
	return m.FormData.LifeGoals
}

// Field returns the value stored under a wizard field key.
func (f *FormData) Field(key string) string {
	switch key {
	case "name":
		return f.Name
	case "birthDate":
		return f.BirthDate
	case "nakshatra":
		return f.Nakshatra
	case "birthTime":
		return f.BirthTime
	case "birthPlace":
		return f.BirthPlace
	case "lagna":
		return f.Lagna
	case "starSign":
		return f.StarSign
	case "strengths":
		return f.Strengths
	case "areasOfImprovement":
		return f.AreasOfImprovement
	case "greatestAchievement":
		return f.GreatestAchievement
	case "lastYearAchievement":
		return f.LastYearAchievement
	case "nextYearGoals":
		return f.NextYearGoals
	case "lifeGoals":
		return f.LifeGoals
	case "howToBeRemembered":
		return f.HowToBeRemembered
	case "manifestationWish":
		return f.ManifestationWish
	}
	return ""
}

// SetField updates the value under key. It reports false for unknown keys.
func (f *FormData) SetField(key, value string) bool {
	switch key {
	case "name":
		f.Name = value
	case "birthDate":
		f.BirthDate = value
	case "nakshatra":
		f.Nakshatra = value
	case "birthTime":
		f.BirthTime = value
	case "birthPlace":
		f.BirthPlace = value
	case "lagna":
		f.Lagna = value
	case "starSign":
		f.StarSign = value
	case "strengths":
		f.Strengths = value
	case "areasOfImprovement":
		f.AreasOfImprovement = value
	case "greatestAchievement":
		f.GreatestAchievement = value
	case "lastYearAchievement":
		f.LastYearAchievement = value
	case "nextYearGoals":
		f.NextYearGoals = value
	case "lifeGoals":
		f.LifeGoals = value
	case "howToBeRemembered":
		f.HowToBeRemembered = value
	case "manifestationWish":
		f.ManifestationWish = value
	default:
		return false
	}
	return true
}
