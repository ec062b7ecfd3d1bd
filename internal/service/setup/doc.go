// Package setup implements next-alarm-setup: it creates the webhook id,
// stores the base URLs and shows the webhook URL as a QR code.
package setup
