package usecase

import (
	"fmt"
	"strings"

	"github.com/fadilmartias/dealer-feedback/internal/config"
	"github.com/fadilmartias/dealer-feedback/internal/model"
)

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func greetingCopy(cfg *config.FeedbackConfig, v *model.SoldVehicle) string {
	vehicle := v.VehicleLabel()
	if vehicle == "" {
		vehicle = "vehicle"
	}
	return fmt.Sprintf("Hi %s, how was your experience buying your %s from %s?",
		firstName(v.CustomerName), vehicle, cfg.DealershipName)
}

func promptCopy(sentiment Sentiment) string {
	switch sentiment {
	case SentimentNegative:
		return "We're sorry your experience fell short. Please tell us what went wrong so we can make it right."
	case SentimentNeutral:
		return "Thanks for your honesty. What could we have done better?"
	}
	return ""
}

func confirmationCopy(cfg *config.FeedbackConfig, sentiment Sentiment, v *model.SoldVehicle) string {
	switch sentiment {
	case SentimentNegative:
		phone := v.CustomerPhone
		if phone == "" {
			phone = "the number on file"
		}
		return fmt.Sprintf("Thank you, %s. A manager has been alerted and will contact you at %s as soon as possible.",
			firstName(v.CustomerName), phone)
	case SentimentNeutral:
		return fmt.Sprintf("Thank you for your feedback. Our management team at %s will review it.", cfg.DealershipName)
	}
	return ""
}

func managerContactCopy(cfg *config.FeedbackConfig) string {
	if cfg.ManagerPhone == "" {
		return ""
	}
	return fmt.Sprintf("Questions? Call %s at %s.", cfg.ManagerName, cfg.ManagerPhone)
}
