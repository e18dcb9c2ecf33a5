package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/visabuddy/checklist-engine/internal/domain"
)

// Prompt construction for checklist generation. Prompts are localized to the
// applicant's app language (en, ru, uz); unknown languages fall back to
// English. The JSON contract in the prompt must stay in sync with
// parseChecklistResponse.

const checklistJSONTemplate = `{
  "type": "checklist",
  "visaType": "...",
  "country": "...",
  "checklist": [
    {
      "documentType": "snake_case_stable_key",
      "name": "...",
      "description": "...",
      "howToObtain": "...",
      "category": "required | highly_recommended | optional",
      "required": true,
      "priority": "high | medium | low"
    }
  ],
  "notes": ["..."]
}`

func buildSystemPrompt(lang string) string {
	var b strings.Builder
	switch lang {
	case "ru":
		b.WriteString("Вы - VisaBuddy, эксперт по визовым документам. ")
		b.WriteString("Вы создаете персонализированные списки документов для визовых заявлений.\n\n")
		b.WriteString("**Инструкции по созданию списка документов:**\n\n")
		b.WriteString("1. Для каждого документа укажите поля: \"documentType\" (стабильный ключ в snake_case), ")
		b.WriteString("\"name\" (на языке пользователя), \"description\", \"howToObtain\", ")
		b.WriteString("\"category\" (required, highly_recommended или optional), \"required\", \"priority\".\n")
		b.WriteString("2. В поле \"notes\" укажите общие рекомендации и важные примечания.\n")
		b.WriteString("3. Используйте официальную терминологию страны назначения.\n")
		b.WriteString("4. Ответьте в формате JSON - только JSON, без дополнительного текста.")
	case "uz":
		b.WriteString("Siz VisaBuddy'siz, viza hujjatlari bo'yicha mutaxassis. ")
		b.WriteString("Siz viza arizalari uchun shaxsiylashtirilgan hujjatlar ro'yxatini yaratasiz.\n\n")
		b.WriteString("**Hujjatlar ro'yxatini yaratish bo'yicha ko'rsatmalar:**\n\n")
		b.WriteString("1. Har bir hujjat uchun quyidagi maydonlarni kiriting: \"documentType\" (snake_case formatida doimiy kalit), ")
		b.WriteString("\"name\" (foydalanuvchi tilida), \"description\", \"howToObtain\", ")
		b.WriteString("\"category\" (required, highly_recommended yoki optional), \"required\", \"priority\".\n")
		b.WriteString("2. \"notes\" maydonida umumiy tavsiyalar va muhim eslatmalarni kiriting.\n")
		b.WriteString("3. Maqsad mamlakatning rasmiy atamalaridan foydalaning.\n")
		b.WriteString("4. JSON formatida javob bering - faqat JSON, boshqa matn yo'q.")
	default:
		b.WriteString("You are VisaBuddy, a visa document expert. ")
		b.WriteString("You create personalized document checklists for visa applications.\n\n")
		b.WriteString("**Instructions for creating the document checklist:**\n\n")
		b.WriteString("1. For each document include the fields: \"documentType\" (stable snake_case key), ")
		b.WriteString("\"name\" (in the user's language), \"description\", \"howToObtain\", ")
		b.WriteString("\"category\" (required, highly_recommended or optional), \"required\", \"priority\".\n")
		b.WriteString("2. In the \"notes\" field, include general recommendations and important caveats.\n")
		b.WriteString("3. Use the destination country's official document terminology.\n")
		b.WriteString("4. Respond in JSON format - JSON only, no additional text.")
	}
	return b.String()
}

func buildUserPrompt(applicant *domain.ApplicantContext) string {
	ctxJSON, err := json.MarshalIndent(applicant, "", "  ")
	if err != nil {
		ctxJSON = []byte("{}")
	}

	switch applicant.AppLanguage {
	case "ru":
		return fmt.Sprintf(`Используйте JSON-контекст ниже, чтобы создать ПОЛНЫЙ, точный список документов для этого пользователя.

КОНТЕКСТ ПОЛЬЗОВАТЕЛЯ (JSON):
%s

ЗАДАЧА:

Используйте возраст, гражданство, тип визы, страну назначения, приглашение, финансы, историю путешествий и текущие документы для создания персонализированного списка.

Включите:
- Обязательные документы
- Рекомендуемые документы
- Документы, специфичные для страны

Ответ должен быть на русском языке.

Вывод ДОЛЖЕН быть в формате JSON и соответствовать шаблону:
%s`, string(ctxJSON), checklistJSONTemplate)
	case "uz":
		return fmt.Sprintf(`Quyidagi JSON kontekstidan foydalanib, bu foydalanuvchi uchun TO'LIQ, aniq hujjatlar ro'yxatini yarating.

FOYDALANUVCHI KONTEKSTI (JSON):
%s

VAZIFA:

Yosh, fuqarolik, viza turi, maqsad mamlakat, taklifnoma, moliyaviy holat, sayohat tarixi va hozirgi hujjatlar asosida shaxsiylashtirilgan ro'yxat yarating.

Quyidagilarni kiriting:
- Talab qilinadigan hujjatlar
- Tavsiya etiladigan hujjatlar
- Mamlakatga xos hujjatlar

Javob O'zbek tilida (Lotin yozuvi) bo'lishi kerak.

Chiqish JSON formatida bo'lishi va quyidagi shablonga mos kelishi kerak:
%s`, string(ctxJSON), checklistJSONTemplate)
	default:
		return fmt.Sprintf(`Use the JSON context below to create a FULL, precise document checklist for this user.

USER CONTEXT (JSON):
%s

TASK:

Use age, citizenship, visaType, targetCountry, invitation, finances, travel history, and current documents to generate a personalized checklist.

Include:
- Required documents
- Recommended documents
- Country-specific documents

Respond in English.

The output MUST be in JSON format and match the checklist template:
%s`, string(ctxJSON), checklistJSONTemplate)
	}
}

// buildRetryPrompt extends the user prompt with the defects found in the
// previous attempt so the model can repair them.
func buildRetryPrompt(applicant *domain.ApplicantContext, problems []string) string {
	base := buildUserPrompt(applicant)
	var b strings.Builder
	b.WriteString(base)
	switch applicant.AppLanguage {
	case "ru":
		b.WriteString("\n\nПредыдущий ответ был отклонен из-за следующих проблем. Исправьте их все:\n")
	case "uz":
		b.WriteString("\n\nOldingi javob quyidagi muammolar tufayli rad etildi. Barchasini tuzating:\n")
	default:
		b.WriteString("\n\nThe previous response was rejected for the following problems. Fix all of them:\n")
	}
	for _, p := range problems {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	return b.String()
}
