package conversation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dlemos/converso/leads"
)

// Persona is the behavior policy handed to the answer generator: the system
// instruction, whether the reply may carry a lead directive, and the marker
// that introduces it.
type Persona struct {
	Name         string `yaml:"name"`
	SystemPrompt string `yaml:"system_prompt"`
	CaptureLeads bool   `yaml:"capture_leads"`
	LeadMarker   string `yaml:"lead_marker"`
}

const leadGrammar = "Quando o cliente informar nome e uma forma de contato, " +
	"encerre a resposta com uma única linha final no formato exato:\n" +
	"LEAD_CAPTURADO: nome | contato | interesse\n" +
	"Não comente essa linha nem a mencione ao cliente."

func builtinPersonas() map[string]Persona {
	return map[string]Persona{
		"atendimento": {
			Name: "atendimento",
			SystemPrompt: "Você é um assistente corporativo. Use APENAS o contexto fornecido " +
				"para responder à pergunta. Se a resposta não estiver no contexto, diga " +
				"\"Sinto muito, essa informação não consta na minha base de conhecimento\".",
		},
		"comercial": {
			Name: "comercial",
			SystemPrompt: "Você é um assistente comercial. Use o contexto abaixo para responder. " +
				"Se não souber, diga que não sabe. Mantenha a resposta com no máximo 500 caracteres.\n\n" +
				leadGrammar,
			CaptureLeads: true,
			LeadMarker:   leads.DefaultMarker,
		},
		"vendas": {
			Name: "vendas",
			SystemPrompt: "Você é um vendedor experiente e persuasivo. Use o contexto para destacar " +
				"benefícios do produto, contorne objeções com naturalidade e conduza o cliente ao " +
				"fechamento. Sempre peça o nome e um contato do cliente antes de encerrar. " +
				"Mantenha a resposta com no máximo 500 caracteres.\n\n" +
				leadGrammar,
			CaptureLeads: true,
			LeadMarker:   leads.DefaultMarker,
		},
	}
}

type personasFile struct {
	Personas []Persona `yaml:"personas"`
}

// LoadPersona resolves a persona by name. Personas declared in the optional
// YAML file override the built-in ones with the same name.
func LoadPersona(name, path string) (Persona, error) {
	available := builtinPersonas()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Persona{}, fmt.Errorf("read personas file: %w", err)
		}

		var parsed personasFile
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Persona{}, fmt.Errorf("parse personas file: %w", err)
		}

		for _, persona := range parsed.Personas {
			if persona.Name == "" {
				return Persona{}, fmt.Errorf("personas file contains an unnamed persona")
			}
			if persona.CaptureLeads && persona.LeadMarker == "" {
				persona.LeadMarker = leads.DefaultMarker
			}
			available[persona.Name] = persona
		}
	}

	persona, ok := available[name]
	if !ok {
		return Persona{}, fmt.Errorf("unknown persona: %s", name)
	}
	return persona, nil
}
