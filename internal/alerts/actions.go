package alerts

type ActionKind string

const (
	KindEmail     ActionKind = "email"
	KindSlack     ActionKind = "slack"
	KindWebhook   ActionKind = "webhook"
	KindDashboard ActionKind = "dashboard"
)

// Action es una variante cerrada: sólo los tipos de este paquete la implementan.
type Action interface {
	Kind() ActionKind
	isAction()
}

type EmailAction struct {
	Recipients []string
	TemplateID string
}

type SlackAction struct {
	Channel    string
	WebhookURL string // vacío usa el del sink
}

type WebhookAction struct {
	URL    string
	Secret string
}

type DashboardAction struct{}

func (EmailAction) Kind() ActionKind     { return KindEmail }
func (SlackAction) Kind() ActionKind     { return KindSlack }
func (WebhookAction) Kind() ActionKind   { return KindWebhook }
func (DashboardAction) Kind() ActionKind { return KindDashboard }

func (EmailAction) isAction()     {}
func (SlackAction) isAction()     {}
func (WebhookAction) isAction()   {}
func (DashboardAction) isAction() {}
