package manifestation

// GenerateRequest is the body posted to the generation API.
type GenerateRequest struct {
	PreferredName       string `json:"preferred_name"`
	BirthDate           string `json:"birth_date"`
	Nakshatra           string `json:"nakshatra"`
	BirthTime           string `json:"birth_time"`
	BirthPlace          string `json:"birth_place"`
	Lagna               string `json:"lagna"`
	StarSign            string `json:"star_sign,omitempty"`
	Strengths           string `json:"strengths"`
	AreasOfImprovement  string `json:"areas_of_improvement"`
	GreatestAchievement string `json:"greatest_achievement"`
	RecentAchievement   string `json:"recent_achievement"`
	NextYearGoals       string `json:"next_year_goals"`
	LifeGoals           string `json:"life_goals"`
	Legacy              string `json:"legacy"`
	ManifestationFocus  string `json:"manifestation_focus"`
}

type ManifestationResponse struct {
	ManifestationText string  `json:"manifestation_text"`
	AudioPath         *string `json:"audio_path"`
	QdrantPointID     *string `json:"qdrant_point_id"`
	Message           string  `json:"message"`
}

type SaveManifestationRequest struct {
	Content   string    `json:"content"`
	AudioPath *string   `json:"audioPath"`
	FormData  *FormData `json:"formData"`
}

func NewGenerateRequest(data FormData) GenerateRequest {
	return GenerateRequest{
		PreferredName:       data.Name,
		BirthDate:           data.BirthDate,
		Nakshatra:           data.Nakshatra,
		BirthTime:           data.BirthTime,
		BirthPlace:          data.BirthPlace,
		Lagna:               data.Lagna,
		StarSign:            data.StarSign,
		Strengths:           data.Strengths,
		AreasOfImprovement:  data.AreasOfImprovement,
		GreatestAchievement: data.GreatestAchievement,
		RecentAchievement:   data.LastYearAchievement,
		NextYearGoals:       data.NextYearGoals,
		LifeGoals:           data.LifeGoals,
		Legacy:              data.HowToBeRemembered,
		ManifestationFocus:  data.ManifestationWish,
	}
}
