// Package tr064test provides an in-process fake FRITZ!Box for tests.
package tr064test

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

const (
	Realm = "F!Box SOAP-Auth"

	wlanServicePrefix = "urn:dslforum-org:service:WLANConfiguration:"
)

// Band is the state of one emulated WLANConfiguration service.
type Band struct {
	Enabled  bool
	SSID     string
	Channel  int
	Standard string
}

// FakeBox emulates the TR-064 endpoints used by fritz-wlan.
type FakeBox struct {
	Server *httptest.Server

	Username string
	Password string

	mu    sync.Mutex
	bands map[int]*Band
	nonce int

	// authenticated SOAP actions by "band#action"
	calls map[string]int

	descriptionStatus int
	faultCode         int
	ignoreSetEnable   bool
	rejectNext        int
}

// New starts a fake router with three WLAN bands, all enabled.
func New(username, password string) *FakeBox {
	fb := &FakeBox{
		Username: username,
		Password: password,
		bands: map[int]*Band{
			1: {Enabled: true, SSID: "FRITZ!Box 7590 XY", Channel: 6, Standard: "n"},
			2: {Enabled: true, SSID: "FRITZ!Box 7590 XY", Channel: 36, Standard: "ac"},
			3: {Enabled: true, SSID: "FRITZ!Box Gastzugang", Channel: 6, Standard: "n"},
		},
		calls: make(map[string]int),
	}
	fb.Server = httptest.NewServer(http.HandlerFunc(fb.serveHTTP))
	return fb
}

// URL returns the base URL of the fake router.
func (fb *FakeBox) URL() string { return fb.Server.URL }

// Close shuts the server down.
func (fb *FakeBox) Close() { fb.Server.Close() }

// Band returns a copy of band n.
func (fb *FakeBox) Band(n int) Band {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return *fb.bands[n]
}

// SetEnabled changes band n as if toggled on the router itself.
func (fb *FakeBox) SetEnabled(n int, enabled bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.bands[n].Enabled = enabled
}

// SetDescriptionStatus makes /tr64desc.xml answer with status (0 restores it).
func (fb *FakeBox) SetDescriptionStatus(status int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.descriptionStatus = status
}

// SetFault makes every action answer with the given UPnP error code (0 clears it).
func (fb *FakeBox) SetFault(code int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.faultCode = code
}

// SetIgnoreSetEnable makes SetEnable succeed without changing any band,
// like a router that silently refuses the change.
func (fb *FakeBox) SetIgnoreSetEnable(ignore bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.ignoreSetEnable = ignore
}

// RejectNext answers the next n correctly authenticated requests with a
// fresh 401 challenge, as after a nonce expiry.
func (fb *FakeBox) RejectNext(n int) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	fb.rejectNext = n
}

// Calls returns how often action ran on WLANConfiguration:n.
func (fb *FakeBox) Calls(n int, action string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return fb.calls[fmt.Sprintf("%d#%s", n, action)]
}

func (fb *FakeBox) serveHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/tr64desc.xml":
		fb.serveDescription(w)
	case r.Method == http.MethodPost && strings.HasPrefix(r.URL.Path, "/upnp/control/wlanconfig"):
		fb.serveControl(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (fb *FakeBox) serveDescription(w http.ResponseWriter) {
	fb.mu.Lock()
	status := fb.descriptionStatus
	fb.mu.Unlock()
	if status != 0 {
		w.WriteHeader(status)
		return
	}

	var services strings.Builder
	for n := 1; n <= 3; n++ {
		fmt.Fprintf(&services, `<service><serviceType>%s%d</serviceType><serviceId>urn:WLANConfiguration-com:serviceId:WLANConfiguration%d</serviceId><controlURL>/upnp/control/wlanconfig%d</controlURL><eventSubURL>/upnp/control/wlanconfig%d</eventSubURL><SCPDURL>/wlanconfigSCPD.xml</SCPDURL></service>`,
			wlanServicePrefix, n, n, n, n)
	}

	w.Header().Set("Content-Type", "text/xml")
	fmt.Fprintf(w, `<?xml version="1.0"?>
<root xmlns="urn:dslforum-org:device-1-0">
<specVersion><major>1</major><minor>0</minor></specVersion>
<systemVersion><HW>226</HW><Major>154</Major><Minor>7</Minor><Patch>57</Patch><Display>154.07.57</Display></systemVersion>
<device>
<deviceType>urn:dslforum-org:device:InternetGatewayDevice:1</deviceType>
<friendlyName>FRITZ!Box 7590</friendlyName>
<manufacturer>AVM</manufacturer>
<modelName>FRITZ!Box 7590</modelName>
<serviceList><service><serviceType>urn:dslforum-org:service:DeviceInfo:1</serviceType><serviceId>urn:DeviceInfo-com:serviceId:DeviceInfo1</serviceId><controlURL>/upnp/control/deviceinfo</controlURL><eventSubURL>/upnp/control/deviceinfo</eventSubURL><SCPDURL>/deviceinfoSCPD.xml</SCPDURL></service></serviceList>
<deviceList><device>
<deviceType>urn:dslforum-org:device:LANDevice:1</deviceType>
<friendlyName>FRITZ!Box 7590</friendlyName>
<serviceList>%s</serviceList>
</device></deviceList>
</device>
</root>`, services.String())
}

func (fb *FakeBox) serveControl(w http.ResponseWriter, r *http.Request) {
	n := 0
	fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/upnp/control/wlanconfig"), "%d", &n)

	if !fb.authorized(r) {
		fb.challenge(w)
		return
	}

	soapAction := strings.Trim(r.Header.Get("SOAPACTION"), `"`)
	serviceType, action, ok := strings.Cut(soapAction, "#")
	if !ok || serviceType != fmt.Sprintf("%s%d", wlanServicePrefix, n) {
		writeFault(w, 401, "Invalid Action")
		return
	}

	body, _ := io.ReadAll(r.Body)
	args := parseArgs(body)

	fb.mu.Lock()
	defer fb.mu.Unlock()

	band, exists := fb.bands[n]
	if !exists {
		writeFault(w, 401, "Invalid Action")
		return
	}
	fb.calls[fmt.Sprintf("%d#%s", n, action)]++

	if fb.faultCode != 0 {
		writeFault(w, fb.faultCode, "Injected Fault")
		return
	}

	switch action {
	case "SetEnable":
		v, ok := args["NewEnable"]
		if !ok || (v != "0" && v != "1") {
			writeFault(w, 402, "Invalid Args")
			return
		}
		if !fb.ignoreSetEnable {
			band.Enabled = v == "1"
		}
		writeResponse(w, serviceType, action, nil)
	case "GetInfo":
		enable, status := "0", "Disabled"
		if band.Enabled {
			enable, status = "1", "Up"
		}
		writeResponse(w, serviceType, action, [][2]string{
			{"NewEnable", enable},
			{"NewStatus", status},
			{"NewMaxBitRate", "Auto"},
			{"NewChannel", fmt.Sprint(band.Channel)},
			{"NewSSID", band.SSID},
			{"NewBeaconType", "11i"},
			{"NewStandard", band.Standard},
			{"NewBSSID", fmt.Sprintf("AA:BB:CC:DD:EE:%02X", n)},
		})
	default:
		writeFault(w, 401, "Invalid Action")
	}
}

func (fb *FakeBox) challenge(w http.ResponseWriter) {
	fb.mu.Lock()
	fb.nonce++
	nonce := fmt.Sprintf("%016X", fb.nonce*7919)
	fb.mu.Unlock()

	w.Header().Set("WWW-Authenticate", fmt.Sprintf(`Digest realm="%s", nonce="%s", algorithm=MD5, qop="auth"`, Realm, nonce))
	w.WriteHeader(http.StatusUnauthorized)
	io.WriteString(w, "<html><body>401 Unauthorized</body></html>")
}

// authorized checks the digest response against the configured credentials.
func (fb *FakeBox) authorized(r *http.Request) bool {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Digest ") {
		return false
	}
	p := parseParams(strings.TrimPrefix(header, "Digest "))

	ha1 := md5Hex(p["username"] + ":" + Realm + ":" + fb.Password)
	ha2 := md5Hex(r.Method + ":" + p["uri"])
	want := md5Hex(strings.Join([]string{ha1, p["nonce"], p["nc"], p["cnonce"], p["qop"], ha2}, ":"))

	if p["username"] != fb.Username || p["realm"] != Realm || p["response"] != want || p["uri"] != r.URL.Path {
		return false
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.rejectNext > 0 {
		fb.rejectNext--
		return false
	}
	return true
}

func writeResponse(w http.ResponseWriter, serviceType, action string, out [][2]string) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	var b strings.Builder
	fmt.Fprintf(&b, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><u:%sResponse xmlns:u="%s">`, action, serviceType)
	for _, kv := range out {
		fmt.Fprintf(&b, "<%s>", kv[0])
		xml.EscapeText(&b, []byte(kv[1]))
		fmt.Fprintf(&b, "</%s>", kv[0])
	}
	fmt.Fprintf(&b, `</u:%sResponse></s:Body></s:Envelope>`, action)
	io.WriteString(w, b.String())
}

func writeFault(w http.ResponseWriter, code int, description string) {
	w.Header().Set("Content-Type", `text/xml; charset="utf-8"`)
	w.WriteHeader(http.StatusInternalServerError)
	fmt.Fprintf(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/"><s:Body><s:Fault><faultcode>s:Client</faultcode><faultstring>UPnPError</faultstring><detail><UPnPError xmlns="urn:dslforum-org:control-1-0"><errorCode>%d</errorCode><errorDescription>%s</errorDescription></UPnPError></detail></s:Fault></s:Body></s:Envelope>`, code, description)
}

// parseArgs returns the leaf elements of the request action element.
func parseArgs(body []byte) map[string]string {
	args := make(map[string]string)
	dec := xml.NewDecoder(strings.NewReader(string(body)))
	var current string
	for {
		tok, err := dec.Token()
		if err != nil {
			return args
		}
		switch t := tok.(type) {
		case xml.StartElement:
			current = t.Name.Local
		case xml.CharData:
			if current != "" {
				args[current] += string(t)
			}
		case xml.EndElement:
			current = ""
		}
	}
}

func parseParams(s string) map[string]string {
	params := make(map[string]string)
	for _, part := range splitParams(s) {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		params[strings.TrimSpace(k)] = strings.Trim(strings.TrimSpace(v), `"`)
	}
	return params
}

// splitParams splits on commas outside of quotes.
func splitParams(s string) []string {
	var parts []string
	var cur strings.Builder
	quoted := false
	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			cur.WriteRune(r)
		case r == ',' && !quoted:
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	if cur.Len() > 0 {
		parts = append(parts, cur.String())
	}
	return parts
}

func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
