package sos

import (
	"encoding/xml"
	"fmt"
	"net/url"
	"strings"

	"liyu1981.xyz/sos-response-service/pkg/models"
)

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName   xml.Name `xml:"Gather"`
	NumDigits int      `xml:"numDigits,attr"`
	Action    string   `xml:"action,attr,omitempty"`
	Method    string   `xml:"method,attr,omitempty"`
	Timeout   int      `xml:"timeout,attr"`
	Say       twimlSay
}

type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Gather  *twimlGather
	Say     []twimlSay
	Hangup  *struct{} `xml:"Hangup,omitempty"`
}

// CallContext is what a callee hears about the emergency.
type CallContext struct {
	CallerName  string
	ContactName string
	Incident    *models.Incident
}

// EmergencyCallScript renders the voice script: the emergency summary inside a one-digit gather
// that posts to gatherURL.
func EmergencyCallScript(cc CallContext, gatherURL string) (string, error) {
	who := cc.CallerName
	if who == "" {
		who = "someone who listed you as an emergency contact"
	}
	kind := strings.ReplaceAll(string(cc.Incident.Type), "_", " ")
	summary := fmt.Sprintf(
		"Hello %s. This is an emergency alert. %s has triggered a %s alert. "+
			"Their last known location is latitude %.5f, longitude %.5f. "+
			"Press 1 if you can help. Press 2 if you cannot.",
		cc.ContactName, who, kind, cc.Incident.CurrentLat, cc.Incident.CurrentLng,
	)

	resp := twimlResponse{
		Gather: &twimlGather{
			NumDigits: 1,
			Action:    gatherURL,
			Method:    "POST",
			Timeout:   10,
			Say:       twimlSay{Voice: "alice", Text: summary},
		},
		Say:    []twimlSay{{Voice: "alice", Text: "We did not receive a response. Goodbye."}},
		Hangup: &struct{}{},
	}
	out, err := xml.Marshal(resp)
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

// AcknowledgementScript is returned to the gateway after a digit was captured.
func AcknowledgementScript(kind models.ResponseKind) (string, error) {
	text := "Sorry, that was not a valid option. Goodbye."
	switch kind {
	case models.ResponseAcknowledged:
		text = "Thank you. The emergency team has been told you are responding. Goodbye."
	case models.ResponseDeclined:
		text = "Thank you. We will contact someone else. Goodbye."
	}
	out, err := xml.Marshal(twimlResponse{Say: []twimlSay{{Voice: "alice", Text: text}}, Hangup: &struct{}{}})
	if err != nil {
		return "", err
	}
	return xml.Header + string(out), nil
}

func callbackURL(base, path, callID, token string) string {
	if base == "" {
		return ""
	}
	q := url.Values{"callId": {callID}}
	if token != "" {
		q.Set("token", token)
	}
	return strings.TrimRight(base, "/") + path + "?" + q.Encode()
}
