// Package chat implements the keyword driven sales assistant.
//
// Rules are evaluated in order against the lowercased message and the first
// rule whose keyword appears as a substring wins. When nothing matches the
// responder answers with its fallback text.
package chat

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrEmptyMessage is returned for blank messages.
var ErrEmptyMessage = errors.New("chat: message is required")

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Rule pairs a keyword with its canned response.
type Rule struct {
	Keyword  string `json:"keyword" yaml:"keyword" mapstructure:"keyword"`
	Response string `json:"response" yaml:"response" mapstructure:"response"`
}

// Message is one chat turn.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	// Keyword is the rule keyword that produced an assistant reply, empty for
	// the fallback.
	Keyword string `json:"keyword,omitempty"`
}

// Responder answers user messages.
type Responder interface {
	Reply(ctx context.Context, message string) (Message, error)
}

// DefaultFallback is sent when no rule matches.
const DefaultFallback = "Puedo asistirte con información sobre tus ventas, clientes, cotizaciones, pedidos y tareas pendientes. ¿Qué información necesitas?"

// DefaultRules returns the stock rule table in match order.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "ventas", Response: "En el mes actual, tenemos 52 cotizaciones activas por un valor total de $283,500 MXN. Las ventas proyectadas para este mes son un 15% superiores al mismo período del año pasado."},
		{Keyword: "cliente", Response: "El cliente Constructora Moderna tiene 3 cotizaciones pendientes y ha comprado productos por $185,000 MXN en los últimos 6 meses. Su último contacto fue hace 12 días."},
		{Keyword: "tarea", Response: "Tienes 8 tareas pendientes de alta prioridad, incluidas 3 cotizaciones por dar seguimiento y 2 clientes que necesitan ser contactados hoy."},
		{Keyword: "cotización", Response: "La cotización #COT-2023-089 para Constructora Moderna incluye 12 productos por un valor total de $45,800 MXN. Fue enviada hace 3 días y aún no ha sido aprobada."},
		{Keyword: "meta", Response: "Tu meta mensual es de $500,000 MXN en ventas y has alcanzado el 56% hasta ahora. Necesitas $220,000 MXN adicionales para cumplir tu objetivo este mes."},
		{Keyword: "pedido", Response: "El pedido VSP-2023-112 para Muebles Modernos está pendiente de facturación. Incluye 8 productos y tiene un valor de $28,500 MXN."},
	}
}

// RuleResponder is a Responder backed by an ordered rule table.
type RuleResponder struct {
	rules    []Rule
	fallback string
	now      func() time.Time
}

// Option customizes a RuleResponder.
type Option func(*RuleResponder)

// WithFallback overrides the reply used when no rule matches.
func WithFallback(text string) Option {
	return func(r *RuleResponder) {
		if strings.TrimSpace(text) != "" {
			r.fallback = text
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(r *RuleResponder) {
		if now != nil {
			r.now = now
		}
	}
}

// NewRuleResponder builds a responder. Rules with a blank keyword are dropped;
// nil rules means DefaultRules.
func NewRuleResponder(rules []Rule, opts ...Option) *RuleResponder {
	if rules == nil {
		rules = DefaultRules()
	}
	r := &RuleResponder{
		rules:    make([]Rule, 0, len(rules)),
		fallback: DefaultFallback,
		now:      time.Now,
	}
	for _, rule := range rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		if keyword == "" {
			continue
		}
		r.rules = append(r.rules, Rule{Keyword: keyword, Response: rule.Response})
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Rules returns a copy of the normalized rule table.
func (r *RuleResponder) Rules() []Rule {
	return append([]Rule(nil), r.rules...)
}

// Match returns the first rule matching the message.
func (r *RuleResponder) Match(message string) (Rule, bool) {
	lower := strings.ToLower(message)
	for _, rule := range r.rules {
		if strings.Contains(lower, rule.Keyword) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Reply implements Responder.
func (r *RuleResponder) Reply(ctx context.Context, message string) (Message, error) {
	if err := ctx.Err(); err != nil {
		return Message{}, err
	}
	if strings.TrimSpace(message) == "" {
		return Message{}, ErrEmptyMessage
	}
	reply := Message{
		Role:      RoleAssistant,
		Content:   r.fallback,
		Timestamp: r.now(),
	}
	if rule, ok := r.Match(message); ok {
		reply.Content = rule.Response
		reply.Keyword = rule.Keyword
	}
	return reply, nil
}
