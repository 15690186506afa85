package mail

type HighValueAlertData struct {
	Name       string
	Email      string
	Score      string
	Stage      string
	CampaignID string
	ContactID  int
}

type EmailSender struct {
	Host       string
	Port       int
	User       string
	Password   string
	From       string
	SalesInbox string
}
