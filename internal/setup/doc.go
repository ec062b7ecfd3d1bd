// Package setup generates the webhook identity of an installation and renders
// the webhook URL as a QR code the phone can scan.
package setup
