package catalog

// Catalog is the static reference data collection: display-label maps and
// numeric settings. Loaded once through the store adapter, read-only after.
type Catalog struct {
	Categories map[string]string `json:"categories"`
	Industries map[string]string `json:"industries"`
	Durations  map[string]string `json:"durations"`
	Formats    map[string]string `json:"formats"`
	Settings   Settings          `json:"settings"`
}

type Settings struct {
	MaxAnnouncementTitleLength       int `json:"maxAnnouncementTitleLength"`
	MaxAnnouncementDescriptionLength int `json:"maxAnnouncementDescriptionLength"`
	MaxRequirementsLength            int `json:"maxRequirementsLength"`
	AutoSaveInterval                 int `json:"autoSaveInterval"` // milliseconds
	ItemsPerPage                     int `json:"itemsPerPage"`
	NotificationDuration             int `json:"notificationDuration"` // milliseconds
}

// Default is the built-in table used when no persisted copy exists.
func Default() Catalog {
	return Catalog{
		Categories: map[string]string{
			"lecture":    "Лекція",
			"seminar":    "Семінар",
			"workshop":   "Майстер-клас",
			"conference": "Конференція",
			"internship": "Стажування",
			"research":   "Дослідження",
			"other":      "Інше",
		},
		Industries: map[string]string{
			"it":            "Інформаційні технології",
			"finance":       "Фінанси та банківська справа",
			"healthcare":    "Охорона здоров'я",
			"education":     "Освіта",
			"manufacturing": "Виробництво",
			"retail":        "Роздрібна торгівля",
			"consulting":    "Консалтинг",
			"marketing":     "Маркетинг та реклама",
			"other":         "Інше",
		},
		Durations: map[string]string{
			"30min":    "30 хвилин",
			"1hour":    "1 година",
			"1.5hours": "1.5 години",
			"2hours":   "2 години",
			"3hours":   "3 години",
			"halfday":  "Пів дня",
			"fullday":  "Повний день",
			"multiday": "Кілька днів",
		},
		Formats: map[string]string{
			"offline": "Офлайн",
			"online":  "Онлайн",
			"hybrid":  "Гібридний",
		},
		Settings: Settings{
			MaxAnnouncementTitleLength:       100,
			MaxAnnouncementDescriptionLength: 1000,
			MaxRequirementsLength:            500,
			AutoSaveInterval:                 30000,
			ItemsPerPage:                     12,
			NotificationDuration:             5000,
		},
	}
}

// display-name lookups fall back to the raw key so unknown values render
// instead of disappearing

func (c Catalog) CategoryName(key string) string {
	if v, ok := c.Categories[key]; ok {
		return v
	}
	return key
}

func (c Catalog) IndustryName(key string) string {
	if v, ok := c.Industries[key]; ok {
		return v
	}
	return key
}

func (c Catalog) DurationName(key string) string {
	if v, ok := c.Durations[key]; ok {
		return v
	}
	return key
}

func (c Catalog) FormatName(key string) string {
	if v, ok := c.Formats[key]; ok {
		return v
	}
	return key
}
