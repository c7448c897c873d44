package rule_fetcher

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/logger"
	"github.com/2dmdigital/xray-go-agent/trace/xrayagent/trace_sampler"
)

const rulesPath = "/GetSamplingRules"

type Config struct {
	DaemonAddress string
	Logger        logger.Logger

	Timeout  time.Duration
	Interval time.Duration

	Notifier []func([]trace_sampler.Rule)
}

// Fetcher polls the collector daemon for the centrally configured
// sampling rules and pushes every change to its notifiers.
type Fetcher struct {
	client *http.Client
	url    string
	logger logger.Logger

	interval time.Duration
	notifier []func([]trace_sampler.Rule)

	oldRaw []byte

	wg        sync.WaitGroup
	closeChan chan struct{}

	fetchLock sync.Mutex
}

func NewRuleFetcher(config Config) *Fetcher {
	if config.Logger == nil {
		config.Logger = &logger.NoopLogger{}
	}
	if config.DaemonAddress == "" {
		config.DaemonAddress = "127.0.0.1:2000"
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Interval <= 0 {
		config.Interval = 30 * time.Second
	}
	return &Fetcher{
		client:    &http.Client{Timeout: config.Timeout},
		url:       fmt.Sprintf("http://%s%s", config.DaemonAddress, rulesPath),
		logger:    config.Logger,
		interval:  config.Interval,
		notifier:  config.Notifier,
		closeChan: make(chan struct{}),
	}
}

func (f *Fetcher) Start() {
	f.refreshRules()
	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		t := time.NewTicker(f.interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				f.refreshRules()
			case <-f.closeChan:
				return
			}
		}
	}()
}

func (f *Fetcher) Stop() {
	close(f.closeChan)
	f.wg.Wait()
}

func (f *Fetcher) refreshRules() {
	rules, raw, err := f.getRules()
	if err != nil {
		f.logger.Error("[refreshRules] get sampling rules error %v", err)
		return
	}
	f.fetchLock.Lock()
	defer f.fetchLock.Unlock()
	if bytes.Equal(f.oldRaw, raw) {
		f.logger.Debug("[refreshRules] got same rules")
		return
	}
	f.oldRaw = raw
	for _, nf := range f.notifier {
		nf(rules)
	}
}

// rule documents as the daemon proxies them from the control plane.
type ruleRecords struct {
	SamplingRuleRecords []struct {
		SamplingRule samplingRule `json:"SamplingRule"`
	} `json:"SamplingRuleRecords"`
}

type samplingRule struct {
	RuleName      string  `json:"RuleName"`
	Priority      int64   `json:"Priority"`
	Host          string  `json:"Host"`
	HTTPMethod    string  `json:"HTTPMethod"`
	URLPath       string  `json:"URLPath"`
	ReservoirSize int64   `json:"ReservoirSize"`
	FixedRate     float64 `json:"FixedRate"`
}

func (f *Fetcher) getRules() ([]trace_sampler.Rule, []byte, error) {
	req, err := http.NewRequest(http.MethodPost, f.url, bytes.NewReader([]byte("{}")))
	if err != nil {
		return nil, nil, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Error("[getRules] http fail. err=%+v", err)
		return nil, nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		f.logger.Error("[getRules] http fail. statusCode=%+v", resp.StatusCode)
		return nil, nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	rawData, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		f.logger.Error("[getRules] read body fail. err=%+v", err)
		return nil, nil, err
	}

	records := ruleRecords{}
	if err := json.Unmarshal(rawData, &records); err != nil {
		f.logger.Error("[getRules] unmarshal fail. err=%+v", err)
		return nil, nil, err
	}

	raw := make([]samplingRule, 0, len(records.SamplingRuleRecords))
	for _, r := range records.SamplingRuleRecords {
		raw = append(raw, r.SamplingRule)
	}
	sort.SliceStable(raw, func(i, j int) bool { return raw[i].Priority < raw[j].Priority })

	rules := make([]trace_sampler.Rule, 0, len(raw))
	for _, r := range raw {
		rules = append(rules, trace_sampler.Rule{
			Description: r.RuleName,
			Host:        r.Host,
			HTTPMethod:  r.HTTPMethod,
			URLPath:     r.URLPath,
			FixedTarget: r.ReservoirSize,
			Rate:        r.FixedRate,
		})
	}
	f.logger.Info("[getRules] success. got %d rules", len(rules))
	return rules, rawData, nil
}
