// Package push implements next-alarm-push. It reads an alarm list from a YAML
// or JSON file and delivers it to the webhook the same way the phone does.
package push
