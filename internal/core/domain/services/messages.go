package services

import (
	"fmt"

	"fulfillment/internal/core/domain/model/order"
)

// CustomerMessage is the text sent to the customer when o entered its current status.
func CustomerMessage(o *order.Order) string {
	switch status := o.Status(); {
	case status.IsOnHold():
		reason, _ := status.HoldReason()
		return fmt.Sprintf("Your order is on hold: %s. Please upload corrected files.", reason)
	case status == order.Prepress:
		return "Your order was accepted and your files are being checked."
	case status == order.Production:
		return "Your files were approved and your order is in production."
	case status == order.Shipped:
		if tracking := o.TrackingNumber(); tracking != "" {
			return fmt.Sprintf("Your order has shipped. Tracking number: %s.", tracking)
		}
		return "Your order has shipped."
	case status == order.Delivered:
		return "Your order was delivered."
	case status == order.Cancelled:
		return "Your order was cancelled."
	default:
		return fmt.Sprintf("Your order status is now %s.", status)
	}
}
