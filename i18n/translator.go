// Package i18n resolves issue codes to human-readable form messages.
// English is the default; Spanish is carried for field crews in the
// Southwest territories.
package i18n

// Translator retrieves localized messages for issue codes. data provides
// optional metadata to embed in the message (for example "min" or "option").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(code string, data map[string]string) string {
	switch t.lang {
	case "es":
		switch code {
		case "invalid_type":
			return "tipo no válido"
		case "required":
			return "este campo es obligatorio"
		case "too_short":
			return "demasiado corto"
		case "too_long":
			return "demasiado largo"
		case "too_small":
			return "valor demasiado pequeño"
		case "too_big":
			return "valor demasiado grande"
		case "pattern":
			return "formato no válido"
		case "invalid_enum":
			return "opción no reconocida"
		case "invalid_format":
			return "formato no válido"
		case "not_in_future":
			return "la fecha no puede ser futura"
		case "too_few_items":
			return "se requieren más elementos"
		case "unknown_key":
			return "campo desconocido"
		case "parse_error":
			return "error de análisis"
		}
	default: // "en"
		switch code {
		case "invalid_type":
			return "invalid value"
		case "required":
			return "this field is required"
		case "too_short":
			return "too short"
		case "too_long":
			return "too long"
		case "too_small":
			return "value too small"
		case "too_big":
			return "value too large"
		case "pattern":
			return "invalid format"
		case "invalid_enum":
			return "not a recognized option"
		case "invalid_format":
			return "invalid format"
		case "not_in_future":
			return "date may not be in the future"
		case "too_few_items":
			return "more entries are required"
		case "unknown_key":
			return "unknown field"
		case "parse_error":
			return "parse error"
		}
	}
	return code
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"es").
func SetLanguage(lang string) {
	if lang != "es" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
