// Package notify delivers state-change alerts to check owners.
//
// A Notifier sends one message to one recipient. The concrete gateways are
// TwilioNotifier (SMS over the Twilio REST API) and LogNotifier (writes the
// alert to the log, used in development). Throttled and Guarded wrap any
// Notifier with a shared rate limit and per-recipient circuit breakers:
//
//	var n notify.Notifier = notify.NewTwilioNotifier(cfg, nil)
//	n = notify.NewGuarded(n, circuitbreaker.NewRegistry(5, time.Minute))
//	n = notify.NewThrottled(n, 1, 5)
//	err := n.Notify(ctx, "5551234567", "Alert: ...")
//
// Delivery is best effort. Nothing is retried.
package notify
