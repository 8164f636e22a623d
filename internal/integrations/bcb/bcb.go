package bcb

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Dan9191/invest-service/internal/config"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// SelicSeries is the SGS code of the daily SELIC rate (percent per year)
const SelicSeries = 432

// Rate is the latest published value of an SGS series
type Rate struct {
	Series int             `json:"series"`
	Name   string          `json:"name,omitempty"`
	Value  decimal.Decimal `json:"value"`
	Date   time.Time       `json:"date"`
}

// Client handles integration with the Banco Central do Brasil SGS web service
type Client struct {
	url    string
	client *http.Client
	log    *logrus.Logger
}

// NewClient initializes a new BCB client
func NewClient(cfg *config.Config, log *logrus.Logger) *Client {
	return &Client{
		url: cfg.BCBURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// buildSOAPRequest creates a getUltimoValorXML request for series
func (c *Client) buildSOAPRequest(series int) ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	env := doc.CreateElement("soapenv:Envelope")
	env.CreateAttr("xmlns:soapenv", "http://schemas.xmlsoap.org/soap/envelope/")
	env.CreateAttr("xmlns:pub", "http://publico.ws.casosdeuso.sgs.pec.bcb.gov.br")
	env.CreateElement("soapenv:Header")
	call := env.CreateElement("soapenv:Body").CreateElement("pub:getUltimoValorXML")
	call.CreateElement("in0").SetText(strconv.Itoa(series))
	return doc.WriteToBytes()
}

// sendRequest posts the SOAP envelope to the SGS endpoint
func (c *Client) sendRequest(ctx context.Context, soapRequest []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(soapRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", `""`)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	c.log.Debugf("BCB XML response: %s", string(body))
	return body, nil
}

func newDocument() *etree.Document {
	doc := etree.NewDocument()
	// SGS declares ISO-8859-1; the fields read here are ASCII.
	doc.ReadSettings.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return doc
}

// parseXMLResponse extracts the series value from the SOAP envelope. The SGS
// payload arrives either as escaped text inside getUltimoValorXMLReturn or as
// inline elements.
func (c *Client) parseXMLResponse(rawBody []byte) (*Rate, error) {
	doc := newDocument()
	if err := doc.ReadFromBytes(rawBody); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	if fault := doc.FindElement("//Fault/faultstring"); fault != nil {
		return nil, fmt.Errorf("SOAP fault: %s", strings.TrimSpace(fault.Text()))
	}

	serie := doc.FindElement("//SERIE")
	if serie == nil {
		ret := doc.FindElement("//getUltimoValorXMLReturn")
		if ret == nil {
			return nil, fmt.Errorf("no series data found in XML")
		}
		inner := newDocument()
		if err := inner.ReadFromString(strings.TrimSpace(ret.Text())); err != nil {
			return nil, fmt.Errorf("failed to parse series XML: %w", err)
		}
		if serie = inner.FindElement("//SERIE"); serie == nil {
			return nil, fmt.Errorf("no series data found in XML")
		}
	}

	return parseSerie(serie)
}

func parseSerie(serie *etree.Element) (*Rate, error) {
	valueElement := serie.FindElement("./VALOR")
	if valueElement == nil {
		return nil, fmt.Errorf("VALOR element not found in XML")
	}
	// Brazilian locale: 1.234,56
	raw := strings.TrimSpace(valueElement.Text())
	raw = strings.ReplaceAll(raw, ".", "")
	raw = strings.ReplaceAll(raw, ",", ".")
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse rate %q: %w", valueElement.Text(), err)
	}

	rate := &Rate{Value: value}
	if id := serie.SelectAttrValue("ID", ""); id != "" {
		rate.Series, _ = strconv.Atoi(id)
	}
	if name := serie.FindElement("./NOME"); name != nil {
		rate.Name = strings.TrimSpace(name.Text())
	}
	if data := serie.FindElement("./DATA"); data != nil {
		rate.Date = parseDate(data)
	}
	return rate, nil
}

func parseDate(data *etree.Element) time.Time {
	part := func(tag string) int {
		el := data.FindElement("./" + tag)
		if el == nil {
			return 0
		}
		n, _ := strconv.Atoi(strings.TrimSpace(el.Text()))
		return n
	}
	day, month, year := part("DIA"), part("MES"), part("ANO")
	if year == 0 || month == 0 {
		return time.Time{}
	}
	if day == 0 {
		day = 1
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// GetSelicRate retrieves the latest SELIC rate, used as the benchmark shown
// next to plan rates
func (c *Client) GetSelicRate(ctx context.Context) (*Rate, error) {
	soapRequest, err := c.buildSOAPRequest(SelicSeries)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	body, err := c.sendRequest(ctx, soapRequest)
	if err != nil {
		return nil, err
	}

	rate, err := c.parseXMLResponse(body)
	if err != nil {
		return nil, err
	}
	if rate.Series == 0 {
		rate.Series = SelicSeries
	}

	c.log.Infof("Retrieved SELIC rate: %s%% (%s)", rate.Value.String(), rate.Date.Format("2006-01-02"))
	return rate, nil
}
