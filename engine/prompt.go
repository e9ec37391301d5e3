package engine

import (
	"strings"

	"github.com/tramovia/rutabot/core"
)

// historyWindow is how many trailing transcript messages are included in the
// prompt. Older messages are dropped to keep the prompt bounded.
const historyWindow = 3

const systemInstruction = `Eres el asistente virtual de Tramovia, la plataforma de transporte escolar e institucional.

Reglas estrictas:
- Responde ÚNICAMENTE con la información del contexto proporcionado. No inventes datos.
- Si el contexto no contiene la respuesta, di exactamente: "No tengo información disponible sobre eso."
- Para rutas: menciona el punto de partida, el punto de llegada y la longitud del recorrido.
- Para vehículos: menciona la placa, el tipo y el modelo.
- Para instituciones: menciona el nombre y la dirección.
- Responde en español, de forma breve y cordial.`

// WelcomeText is the fixed onboarding message. It is static so it can be
// shown before the corpus is built.
const WelcomeText = `¡Hola! Soy el asistente de Tramovia. Puedo responder preguntas sobre rutas de transporte, instituciones, vehículos y horarios de viaje. ¿En qué puedo ayudarte?`

// ApologyText is returned instead of a generated answer whenever the
// generation provider fails.
const ApologyText = `Lo siento, no puedo responder en este momento. Por favor intenta de nuevo más tarde.`

func roleLabel(role core.Role) string {
	if role == core.RoleAssistant {
		return "Asistente"
	}
	return "Usuario"
}

// buildPrompt assembles the single prompt string sent to the generation
// provider: system instruction, grounding context in ranked order, the last
// historyWindow transcript messages and the current question.
func buildPrompt(question string, contextBlocks []string, history []core.ChatMessage) string {
	var sb strings.Builder

	sb.WriteString(systemInstruction)
	sb.WriteString("\n\nContexto:\n")
	if len(contextBlocks) == 0 {
		sb.WriteString("(sin resultados)\n")
	} else {
		for _, block := range contextBlocks {
			sb.WriteString(block)
			sb.WriteString("\n")
		}
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) > 0 {
		sb.WriteString("\nConversación reciente:\n")
		for _, msg := range history {
			sb.WriteString(roleLabel(msg.Role))
			sb.WriteString(": ")
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\nPregunta: ")
	sb.WriteString(question)
	sb.WriteString("\nRespuesta:")

	return sb.String()
}
