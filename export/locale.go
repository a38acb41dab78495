package export

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

// Labels are the human-readable strings a locale contributes to exports.
type Labels struct {
	Title       string
	GeneratedAt string
	Total       string
	Empty       string
	Position    string
	Name        string
	Age         string
	School      string
	Score       string
	Level       string
	Date        string
	// OrdinalFormat turns a rank into "1º", "#1" and so on.
	OrdinalFormat string
}

// Locale bundles a language tag with its date layout and labels.
type Locale struct {
	Tag        language.Tag
	DateLayout string
	Labels     Labels
}

// Ordinal renders a rank in the locale's style.
func (l Locale) Ordinal(rank int) string {
	return fmt.Sprintf(l.Labels.OrdinalFormat, rank)
}

var (
	BrazilianPortuguese = Locale{
		Tag:        language.BrazilianPortuguese,
		DateLayout: "02/01/2006 15:04:05",
		Labels: Labels{
			Title:         "RANKING - MONSTRINHOS DA MATEMÁTICA",
			GeneratedAt:   "Gerado em",
			Total:         "Total de pontuações",
			Empty:         "Nenhuma pontuação registrada.",
			Position:      "Posição",
			Name:          "Nome",
			Age:           "Idade",
			School:        "Escola",
			Score:         "Pontuação",
			Level:         "Nível",
			Date:          "Data",
			OrdinalFormat: "%dº",
		},
	}
	AmericanEnglish = Locale{
		Tag:        language.AmericanEnglish,
		DateLayout: "01/02/2006, 3:04:05 PM",
		Labels: Labels{
			Title:         "RANKING - MATH MONSTERS",
			GeneratedAt:   "Generated at",
			Total:         "Total scores",
			Empty:         "No scores recorded.",
			Position:      "Position",
			Name:          "Name",
			Age:           "Age",
			School:        "School",
			Score:         "Score",
			Level:         "Level",
			Date:          "Date",
			OrdinalFormat: "#%d",
		},
	}
	EuropeanSpanish = Locale{
		Tag:        language.EuropeanSpanish,
		DateLayout: "02/01/2006 15:04:05",
		Labels: Labels{
			Title:         "CLASIFICACIÓN - MONSTRUOS DE LAS MATEMÁTICAS",
			GeneratedAt:   "Generado el",
			Total:         "Total de puntuaciones",
			Empty:         "No hay puntuaciones registradas.",
			Position:      "Posición",
			Name:          "Nombre",
			Age:           "Edad",
			School:        "Escuela",
			Score:         "Puntuación",
			Level:         "Nivel",
			Date:          "Fecha",
			OrdinalFormat: "%dº",
		},
	}
)

// Locales lists the supported locales; the first is the fallback.
var Locales = []Locale{BrazilianPortuguese, AmericanEnglish, EuropeanSpanish}

var matcher = func() language.Matcher {
	tags := make([]language.Tag, len(Locales))
	for i, l := range Locales {
		tags[i] = l.Tag
	}
	return language.NewMatcher(tags)
}()

// matchLocale accepts a single tag or an Accept-Language list.
func matchLocale(pref string) (Locale, bool) {
	pref = strings.TrimSpace(pref)
	if pref == "" {
		return Locale{}, false
	}
	tags, _, err := language.ParseAcceptLanguage(pref)
	if err != nil || len(tags) == 0 {
		return Locale{}, false
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Locale{}, false
	}
	return Locales[idx], true
}
