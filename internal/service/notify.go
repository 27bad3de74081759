package service

import (
	"Mini_Drive/model"
	"Mini_Drive/utils"
	"context"
	"fmt"
	"html"
	"log"
)

// Notification is one message to a user.
type Notification struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers notifications. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type nopNotifier struct{}

func (nopNotifier) Notify(ctx context.Context, n Notification) error { return nil }

// EmailNotifier sends notifications through SMTP.
type EmailNotifier struct{}

// Notify sends the mail in the background so request latency does not depend on SMTP.
func (EmailNotifier) Notify(ctx context.Context, n Notification) error {
	go func() {
		if err := utils.SendMail(n.To, n.Subject, n.Body); err != nil {
			log.Printf("send mail %q failed: %v", n.Subject, err)
		}
	}()
	return nil
}

var notifier Notifier = nopNotifier{}

// SetNotifier installs the notification channel.
func SetNotifier(n Notifier) {
	if n == nil {
		n = nopNotifier{}
	}
	notifier = n
}

func notifyUser(ctx context.Context, userID, subject, body string) {
	user, err := GetUserByID(ctx, userID)
	if err != nil {
		log.Printf("notify user %s: %v", userID, err)
		return
	}
	if err := notifier.Notify(ctx, Notification{To: user.Email, Subject: subject, Body: body}); err != nil {
		log.Printf("notify user %s: %v", userID, err)
	}
}

func notifyAccessRequested(ctx context.Context, req *model.AccessRequest, file *model.File, requester *model.User) {
	body := fmt.Sprintf("<p>%s requested <b>%s</b> access to <b>%s</b>.</p>",
		html.EscapeString(requester.Email), req.RequestedPermission, html.EscapeString(file.Name))
	if req.Message != nil {
		body += fmt.Sprintf("<p>Message: %s</p>", html.EscapeString(*req.Message))
	}
	notifyUser(ctx, req.OwnerID, "New access request for "+file.Name, body)
}

func notifyAccessDecided(ctx context.Context, req *model.AccessRequest, fileName string) {
	body := fmt.Sprintf("<p>Your request for <b>%s</b> access to <b>%s</b> was %s.</p>",
		req.RequestedPermission, html.EscapeString(fileName), req.Status)
	notifyUser(ctx, req.RequestedBy, "Access request "+req.Status, body)
}
