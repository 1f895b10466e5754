package tr064

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildEnvelope(t *testing.T) {
	body, err := buildEnvelope(ServiceType("WLANConfiguration:1"), "SetEnable", []Arg{
		{Name: "NewEnable", Value: true},
		{Name: "NewSSID", Value: "a<b&c"},
	})
	if err != nil {
		t.Fatalf("buildEnvelope failed: %v", err)
	}
	s := string(body)

	for _, want := range []string{
		`<u:SetEnable xmlns:u="urn:dslforum-org:service:WLANConfiguration:1">`,
		`<NewEnable>1</NewEnable>`,
		`<NewSSID>a&lt;b&amp;c</NewSSID>`,
		`</u:SetEnable></s:Body></s:Envelope>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("envelope missing %q:\n%s", want, s)
		}
	}
	if strings.Index(s, "NewEnable") > strings.Index(s, "NewSSID") {
		t.Error("arguments must keep their order")
	}
}

func TestBuildEnvelope_UnsupportedType(t *testing.T) {
	if _, err := buildEnvelope("urn:x", "A", []Arg{{Name: "X", Value: 1.5}}); err == nil {
		t.Error("expected error for float argument")
	}
}

func TestParseEnvelope_Response(t *testing.T) {
	const resp = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/">
<s:Body>
<u:GetInfoResponse xmlns:u="urn:dslforum-org:service:WLANConfiguration:1">
<NewEnable>1</NewEnable>
<NewStatus>Up</NewStatus>
<NewSSID>Home &amp; Garden</NewSSID>
<NewChannel>6</NewChannel>
</u:GetInfoResponse>
</s:Body>
</s:Envelope>`

	out, err := parseEnvelope(strings.NewReader(resp), "GetInfo")
	if err != nil {
		t.Fatalf("parseEnvelope failed: %v", err)
	}
	if out["NewStatus"] != "Up" || out["NewSSID"] != "Home & Garden" {
		t.Errorf("unexpected arguments: %v", out)
	}
}

func TestParseEnvelope_Fault(t *testing.T) {
	const resp = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body><s:Fault>
<faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring>
<detail><UPnPError xmlns="urn:dslforum-org:control-1-0"><errorCode>402</errorCode><errorDescription>Invalid Args</errorDescription></UPnPError></detail>
</s:Fault></s:Body></s:Envelope>`

	_, err := parseEnvelope(strings.NewReader(resp), "SetEnable")
	var fault *FaultError
	if !errors.As(err, &fault) {
		t.Fatalf("expected *FaultError, got %v", err)
	}
	if fault.Code != FaultInvalidArgs || fault.Description != "Invalid Args" || fault.FaultString != "UPnPError" {
		t.Errorf("unexpected fault: %+v", fault)
	}
	if fault.Error() != "UPnPError 402: Invalid Args" {
		t.Errorf("Error() = %q", fault.Error())
	}
}

func TestParseEnvelope_Malformed(t *testing.T) {
	tests := map[string]string{
		"not xml":        "<html><body>oops",
		"no body":        `<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"></s:Envelope>`,
		"wrong response": `<s:Envelope xmlns:s="x"><s:Body><u:OtherResponse/></s:Body></s:Envelope>`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseEnvelope(strings.NewReader(body), "GetInfo"); !errors.Is(err, ErrMalformedResponse) {
				t.Errorf("expected ErrMalformedResponse, got %v", err)
			}
		})
	}
}

func TestArguments_Bool(t *testing.T) {
	tests := []struct {
		value   string
		want    bool
		wantErr bool
	}{
		{"1", true, false},
		{"0", false, false},
		{"true", true, false},
		{"False", false, false},
		{"maybe", false, true},
	}
	for _, tt := range tests {
		got, err := Arguments{"NewEnable": tt.value}.Bool("NewEnable")
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("Bool(%q) = %v, %v", tt.value, got, err)
		}
	}

	if _, err := (Arguments{}).Bool("NewEnable"); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}
}

func TestArguments_Int(t *testing.T) {
	a := Arguments{"NewChannel": " 44 ", "NewSSID": "x"}
	if n, err := a.Int("NewChannel"); err != nil || n != 44 {
		t.Errorf("Int(NewChannel) = %d, %v", n, err)
	}
	if _, err := a.Int("NewSSID"); err == nil {
		t.Error("expected error for non-numeric value")
	}
}
