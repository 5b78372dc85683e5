package models

import "encoding/xml"

type Account struct {
	ID     string `xml:"id,attr" json:"id"`
	Name   string `xml:"name,attr" json:"name"`
	Status string `xml:"status,omitempty" json:"status"`
	COS    string `xml:"cos,omitempty" json:"cos,omitempty"`
}

// AccountSelector picks an account by name, id or foreign principal.
type AccountSelector struct {
	By    string `xml:"by,attr"`
	Value string `xml:",chardata"`
}

type GetInfoRequest struct {
	XMLName xml.Name `xml:"urn:zimbraAccount GetInfoRequest"`
}
type GetInfoResponse struct {
	XMLName xml.Name `xml:"urn:zimbraAccount GetInfoResponse"`
	ID      string   `xml:"id"`
	Name    string   `xml:"name"`
	Version string   `xml:"version"`
}

type GetAccountRequest struct {
	XMLName xml.Name        `xml:"urn:zimbraAdmin GetAccountRequest"`
	Account AccountSelector `xml:"account"`
}
type GetAccountResponse struct {
	XMLName xml.Name `xml:"urn:zimbraAdmin GetAccountResponse"`
	Account Account  `xml:"account"`
}

type NoOpRequest struct {
	XMLName xml.Name `xml:"urn:zimbraMail NoOpRequest"`
}
type NoOpResponse struct {
	XMLName xml.Name `xml:"urn:zimbraMail NoOpResponse"`
}
