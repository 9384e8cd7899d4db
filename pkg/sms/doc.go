// Package sms delivers short text messages through the Twilio REST API.
package sms
