package tr064

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	nethttp "net/http"
	"strings"

	"github.com/wlantray/fritz-wlan/internal/constants"
)

const serviceTypePrefix = "urn:dslforum-org:service:"

// ServiceType expands a short service name such as "WLANConfiguration:1"
// into its URN. Full URNs are returned unchanged.
func ServiceType(service string) string {
	if strings.HasPrefix(service, "urn:") {
		return service
	}
	return serviceTypePrefix + service
}

// WLANService returns the short service name of the n-th WLAN interface
// (1 = 2.4 GHz, 2 = 5 GHz, 3 = guest on most models).
func WLANService(n int) string {
	return fmt.Sprintf("%s:%d", constants.WLANServiceName, n)
}

// Service is one entry of the device description's service list.
type Service struct {
	ServiceType string `xml:"serviceType"`
	ServiceID   string `xml:"serviceId"`
	ControlURL  string `xml:"controlURL"`
	EventSubURL string `xml:"eventSubURL"`
	SCPDURL     string `xml:"SCPDURL"`
}

type device struct {
	DeviceType   string    `xml:"deviceType"`
	FriendlyName string    `xml:"friendlyName"`
	Manufacturer string    `xml:"manufacturer"`
	ModelName    string    `xml:"modelName"`
	Services     []Service `xml:"serviceList>service"`
	Devices      []device  `xml:"deviceList>device"`
}

type descriptionDocument struct {
	XMLName       xml.Name `xml:"root"`
	SystemVersion struct {
		Display string `xml:"Display"`
	} `xml:"systemVersion"`
	Device device `xml:"device"`
}

// Description is the parsed TR-064 device description (tr64desc.xml).
type Description struct {
	FriendlyName    string
	Manufacturer    string
	ModelName       string
	SoftwareVersion string

	services map[string]Service
}

// Service looks up a service by short name or URN.
func (d *Description) Service(service string) (Service, bool) {
	s, ok := d.services[ServiceType(service)]
	return s, ok
}

// Services returns all known service types in no particular order.
func (d *Description) Services() []string {
	names := make([]string, 0, len(d.services))
	for name := range d.services {
		names = append(names, name)
	}
	return names
}

func parseDescription(r io.Reader) (*Description, error) {
	var doc descriptionDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: device description: %v", ErrMalformedResponse, err)
	}

	desc := &Description{
		FriendlyName:    doc.Device.FriendlyName,
		Manufacturer:    doc.Device.Manufacturer,
		ModelName:       doc.Device.ModelName,
		SoftwareVersion: doc.SystemVersion.Display,
		services:        make(map[string]Service),
	}

	var walk func(d device)
	walk = func(d device) {
		for _, s := range d.Services {
			st := strings.TrimSpace(s.ServiceType)
			if _, seen := desc.services[st]; !seen {
				desc.services[st] = s
			}
		}
		for _, child := range d.Devices {
			walk(child)
		}
	}
	walk(doc.Device)

	return desc, nil
}

// fetchDescription downloads and parses the device description.
func (c *Client) fetchDescription(ctx context.Context) (*Description, error) {
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, c.baseURL+constants.TR064DescriptionPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch device description: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		return nil, fmt.Errorf("failed to fetch device description: HTTP %d", resp.StatusCode)
	}
	return parseDescription(resp.Body)
}

// fallbackControlURL returns the well-known FRITZ!OS control URL for
// services the client knows about, or "" for anything else.
func fallbackControlURL(serviceType string) string {
	prefix := serviceTypePrefix + constants.WLANServiceName + ":"
	if n, ok := strings.CutPrefix(serviceType, prefix); ok && n != "" {
		return "/upnp/control/wlanconfig" + n
	}
	return ""
}
