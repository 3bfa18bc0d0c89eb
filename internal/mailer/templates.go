package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// Template names, also used as metric labels.
const (
	TemplateConfirmation  = "confirmation"
	TemplateVotingClosed  = "voting_closed"
	TemplateProjectUpdate = "project_update"
)

var templates = template.Must(template.New("mail").Parse(`
{{define "confirmation"}}<p>Hi {{.Name}},</p>
<p>Welcome to SolarShare. Please confirm your email address to finish setting up your account:</p>
<p><a href="{{.Link}}">Confirm my email</a></p>
<p>If you did not sign up, you can ignore this message.</p>{{end}}
{{define "voting_closed"}}<p>Hi {{.Name}},</p>
<p>Voting for <b>{{.Community}}</b> has ended. The community selected <b>{{.Provider}}</b> for a total cost of {{.TotalCost}}.</p>
<p>Follow the installation here: <a href="{{.Link}}">{{.Link}}</a></p>{{end}}
{{define "project_update"}}<p>Hi {{.Name}},</p>
<p>The installation for <b>{{.Community}}</b> is now <b>{{.Status}}</b> ({{.Progress}}% complete).</p>
<p><a href="{{.Link}}">View progress</a></p>{{end}}
`))

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

// ConfirmationEmail asks a new user to confirm their address.
func ConfirmationEmail(to, name, link string) (Message, error) {
	body, err := render(TemplateConfirmation, map[string]string{"Name": name, "Link": link})
	if err != nil {
		return Message{}, err
	}
	return Message{Template: TemplateConfirmation, To: to, Subject: "Confirm your SolarShare account", HTMLBody: body}, nil
}

// VotingClosed tells a member which provider the community selected.
type VotingClosed struct {
	Name      string
	Community string
	Provider  string
	TotalCost string
	Link      string
}

// VotingClosedEmail renders the voting-closed notice.
func VotingClosedEmail(to string, data VotingClosed) (Message, error) {
	body, err := render(TemplateVotingClosed, data)
	if err != nil {
		return Message{}, err
	}
	return Message{Template: TemplateVotingClosed, To: to, Subject: "Your community selected a solar provider", HTMLBody: body}, nil
}

// ProjectUpdate reports installation progress to a member.
type ProjectUpdate struct {
	Name      string
	Community string
	Status    string
	Progress  int
	Link      string
}

// ProjectUpdateEmail renders the installation progress notice.
func ProjectUpdateEmail(to string, data ProjectUpdate) (Message, error) {
	body, err := render(TemplateProjectUpdate, data)
	if err != nil {
		return Message{}, err
	}
	return Message{Template: TemplateProjectUpdate, To: to, Subject: "Installation update for " + data.Community, HTMLBody: body}, nil
}
