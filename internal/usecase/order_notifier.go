package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"backoffice/internal/domain/model"
	"backoffice/internal/infra/mailer"

	"go.uber.org/zap"
)

// ステータスごとの顧客向け文面。%s は注文コード
var statusCopy = map[model.OrderStatus]string{
	model.OrderStatusDraft:      "Your order %s has been saved as a draft.",
	model.OrderStatusPending:    "We have received your order %s and it is awaiting confirmation.",
	model.OrderStatusConfirmed:  "Your order %s has been confirmed.",
	model.OrderStatusProcessing: "Your order %s is being prepared for shipment.",
	model.OrderStatusShipped:    "Good news! Your order %s has shipped.",
	model.OrderStatusDelivered:  "Your order %s has been delivered.",
	model.OrderStatusCancelled:  "Your order %s has been cancelled.",
	model.OrderStatusFailed:     "There was a problem processing your order %s.",
	model.OrderStatusRefunded:   "A refund has been issued for your order %s.",
	model.OrderStatusReturned:   "We have received the return of your order %s.",
}

func statusSentence(code string, st model.OrderStatus) string {
	if f, ok := statusCopy[st]; ok {
		return fmt.Sprintf(f, code)
	}
	return fmt.Sprintf("Your order %s status is now %s.", code, st)
}

var customerMailTmpl = template.Must(template.New("customer").Parse(`<!doctype html>
<html><body>
<p>Hello {{.Name}},</p>
<p>{{.Sentence}}</p>
{{if .Note}}<p>Note from our team: {{.Note}}</p>{{end}}
<p><a href="{{.Link}}">View your order</a></p>
</body></html>`))

var adminMailTmpl = template.Must(template.New("admin").Parse(`<!doctype html>
<html><body>
<p>Order <strong>{{.Code}}</strong> changed from {{.Previous}} to {{.Status}}.</p>
<p>Customer: {{.Name}} &lt;{{.Email}}&gt;</p>
{{if .Note}}<p>Note: {{.Note}}</p>{{end}}
<p><a href="{{.Link}}">Open order</a></p>
</body></html>`))

type mailView struct {
	Code     string
	Name     string
	Email    string
	Sentence string
	Previous model.OrderStatus
	Status   model.OrderStatus
	Note     string
	Link     string
}

type StatusChangeNotice struct {
	Order          model.Order
	CustomerEmail  string
	CustomerName   string
	PreviousStatus model.OrderStatus
	NewStatus      model.OrderStatus
	Note           *string
}

// メール送信の結果。失敗しても注文の更新は取り消さない
type NotificationResult struct {
	Success    bool     `json:"success"`
	Error      string   `json:"error,omitempty"`
	Recipients []string `json:"recipients"`
}

type StatusNotifier interface {
	NotifyStatusChange(ctx context.Context, n StatusChangeNotice) NotificationResult
}

type OrderNotifier struct {
	sender       mailer.Sender
	supportEmail string
	siteURL      string
	log          *zap.Logger
}

func NewOrderNotifier(sender mailer.Sender, supportEmail, siteURL string, log *zap.Logger) *OrderNotifier {
	return &OrderNotifier{
		sender:       sender,
		supportEmail: strings.TrimSpace(supportEmail),
		siteURL:      strings.TrimRight(siteURL, "/"),
		log:          log,
	}
}

func (n *OrderNotifier) orderLink(code string) string {
	return n.siteURL + "/orders/" + url.PathEscape(code)
}

func (n *OrderNotifier) adminLink(code string) string {
	return n.siteURL + "/admin/orders/" + url.PathEscape(code)
}

// 顧客宛て1通 + 対象ステータスなら管理者宛て1通を、1本の接続で送る
func (n *OrderNotifier) NotifyStatusChange(ctx context.Context, in StatusChangeNotice) NotificationResult {
	view := mailView{
		Code:     in.Order.Code,
		Name:     in.CustomerName,
		Email:    in.CustomerEmail,
		Sentence: statusSentence(in.Order.Code, in.NewStatus),
		Previous: in.PreviousStatus,
		Status:   in.NewStatus,
	}
	if in.Note != nil {
		view.Note = *in.Note
	}

	var msgs []mailer.Message
	var problems []string

	if strings.TrimSpace(in.CustomerEmail) == "" {
		problems = append(problems, "customer email unavailable")
	} else {
		view.Link = n.orderLink(in.Order.Code)
		body, err := render(customerMailTmpl, view)
		if err != nil {
			return n.fail(in, err)
		}
		msgs = append(msgs, mailer.Message{
			To:      in.CustomerEmail,
			Subject: fmt.Sprintf("Order %s: %s", in.Order.Code, in.NewStatus),
			HTML:    body,
		})
	}

	if in.NewStatus.NotifiesAdmin() && n.supportEmail != "" {
		view.Link = n.adminLink(in.Order.Code)
		body, err := render(adminMailTmpl, view)
		if err != nil {
			return n.fail(in, err)
		}
		msgs = append(msgs, mailer.Message{
			To:      n.supportEmail,
			Subject: fmt.Sprintf("[Admin] Order %s is now %s", in.Order.Code, in.NewStatus),
			HTML:    body,
		})
	}

	res := NotificationResult{Recipients: make([]string, 0, len(msgs))}
	for _, m := range msgs {
		res.Recipients = append(res.Recipients, m.To)
	}
	if len(msgs) == 0 {
		return n.fail(in, errors.New(strings.Join(problems, "; ")))
	}

	results, err := n.sender.Send(ctx, msgs)
	if err != nil {
		out := n.fail(in, err)
		out.Recipients = res.Recipients
		return out
	}
	for _, r := range results {
		if r.Err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", r.To, r.Err))
		}
	}
	if len(problems) > 0 {
		out := n.fail(in, errors.New(strings.Join(problems, "; ")))
		out.Recipients = res.Recipients
		return out
	}

	res.Success = true
	return res
}

func (n *OrderNotifier) fail(in StatusChangeNotice, err error) NotificationResult {
	n.log.Warn("order status email failed",
		zap.String("order_code", in.Order.Code),
		zap.String("status", string(in.NewStatus)),
		zap.Error(err),
	)
	return NotificationResult{Success: false, Error: err.Error(), Recipients: []string{}}
}

func render(t *template.Template, v mailView) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}
