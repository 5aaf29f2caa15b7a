package bot

import (
	"strings"

	"gatekeeper-bot/internal/service"
)

const (
	btnSubscribe = "Подписаться"
	btnRecheck   = "Проверить подписку"
	btnKeys      = "Получить ключи!!!"

	cbCheckSubscription = "check_subscription"
)

// Button carries exactly one action: URL, CallbackData or WebAppURL.
type Button struct {
	Text         string
	URL          string
	CallbackData string
	WebAppURL    string
}

// Markup is an inline keyboard, one slice per row.
type Markup [][]Button

// Payload is a photo message with caption and inline keyboard.
type Payload struct {
	PhotoURL string
	Caption  string
	Markup   Markup
}

// Links holds the configured destinations used in replies.
type Links struct {
	ChannelID    string
	PhotoURL     string
	SubscribeURL string
	WebAppURL    string
}

func (l Links) channelMention() string {
	if strings.HasPrefix(l.ChannelID, "@") {
		return l.ChannelID
	}
	return "наш канал"
}

func rewardCaption() string {
	return "Привет, халявные ключи для тебя и твоих корешей!!!"
}

func subscribeCaption(links Links) string {
	return "Пожалуйста, подпишитесь на " + links.channelMention() + ", чтобы получить ключи."
}

func stillNotSubscribedCaption(links Links) string {
	return "Ты не подписался на " + links.channelMention() + "!!! Сделай уже это и возвращайся обратно."
}

func subscribeMarkup(links Links) Markup {
	return Markup{
		{{Text: btnSubscribe, URL: links.SubscribeURL}},
		{{Text: btnRecheck, CallbackData: cbCheckSubscription}},
	}
}

func rewardMarkup(links Links) Markup {
	return Markup{
		{{Text: btnKeys, WebAppURL: links.WebAppURL}},
	}
}

func subscribePayload(links Links, caption string) Payload {
	return Payload{PhotoURL: links.PhotoURL, Caption: caption, Markup: subscribeMarkup(links)}
}

func rewardPayload(links Links) Payload {
	return Payload{PhotoURL: links.PhotoURL, Caption: rewardCaption(), Markup: rewardMarkup(links)}
}

// payloadFor picks the reward for subscribers and the subscribe prompt otherwise.
func payloadFor(membership service.Membership, links Links) Payload {
	if membership == service.MembershipSubscribed {
		return rewardPayload(links)
	}
	return subscribePayload(links, subscribeCaption(links))
}
