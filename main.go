package main

import (
	"context"
	"time"

	"altruist-go/bus"
	"altruist-go/platform"
	"altruist-go/services/aggregator"
	"altruist-go/services/config"
	"altruist-go/services/report"
	"altruist-go/services/sensors"
	"altruist-go/types"
)

const deviceID = "altruist"

// awaitRetained blocks for one retained message on topic, or gives up.
func awaitRetained(conn *bus.Connection, topic bus.Topic, wait time.Duration) (any, bool) {
	sub := conn.Subscribe(topic)
	defer sub.Unsubscribe()
	select {
	case m := <-sub.Channel():
		return m.Payload, true
	case <-time.After(wait):
		return nil, false
	}
}

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("Altruist")

	ctx := context.WithValue(context.Background(), config.CtxDeviceKey, deviceID)

	b := bus.NewBus(8)
	conn := b.NewConnection("main")
	config.NewService().Start(ctx, conn)

	var aggCfg types.AggregatorConfig
	if p, ok := awaitRetained(conn, bus.T("config", "aggregator"), time.Second); ok {
		aggCfg, _ = p.(types.AggregatorConfig)
	}
	sensorCfgs, fromConfig := loadSensorConfigs(conn, time.Second)

	set := platform.Open()
	sink := report.NewSerialSink(set.Out)
	if !fromConfig {
		// A device with no sensors would report ok=0/0 forever and look
		// healthy; say why, then run on the built-in bindings.
		sink.Line("AGGREGATOR", "config error: retained sensor config missing, using built-in defaults")
	}

	var srcs []aggregator.Source
	for _, id := range types.SensorOrder {
		cfg, ok := sensorCfgs[id]
		if !ok {
			continue
		}
		drv := buildDriver(id, cfg, set)
		if drv == nil {
			sink.Line(id.Tag(), "transport not available, sensor disabled")
			continue
		}
		task := sensors.NewTask(drv, cfg, sink)
		task.Start(ctx)
		srcs = append(srcs, aggregator.Source{ID: id, Slot: task.Slot()})
	}

	aggregator.New(aggCfg, srcs, sink).Start(ctx)

	select {}
}

// loadSensorConfigs waits for the retained sensor configuration; if it never
// arrives (or is empty), it reports that and returns the built-in bindings so
// the device still acquires.
func loadSensorConfigs(conn *bus.Connection, wait time.Duration) (types.SensorsConfig, bool) {
	if p, ok := awaitRetained(conn, bus.T("config", "sensors"), wait); ok {
		if cfgs, ok := p.(types.SensorsConfig); ok && len(cfgs) > 0 {
			return cfgs, true
		}
	}
	return defaultSensorConfigs(), false
}

// defaultSensorConfigs mirrors the shipped embedded configuration; timings
// left zero fall back through the types.SensorConfig accessors.
func defaultSensorConfigs() types.SensorsConfig {
	return types.SensorsConfig{
		types.SDS011: {ReadTimeoutMs: 1500, WarmupMs: 15000, UART: "uart1"},
		types.BME280: {ReadTimeoutMs: 500, WarmupMs: 2000, Bus: "i2c0", Addr: 118},
		types.ME2CO:  {ReadTimeoutMs: 250, WarmupMs: 3000, ADC: "adc0"},
	}
}

// buildDriver resolves the configured transport for a sensor and wraps it.
func buildDriver(id types.SensorID, cfg types.SensorConfig, set *platform.Set) sensors.Driver {
	switch id {
	case types.SDS011:
		port, ok := set.UART(cfg.UART)
		if !ok {
			return nil
		}
		return sensors.NewSDS011(port, cfg.Warmup())
	case types.BME280:
		busHW, ok := set.I2C(cfg.Bus)
		if !ok {
			return nil
		}
		return sensors.NewBME280(busHW, cfg.Addr, cfg.Warmup())
	case types.ME2CO:
		line, ok := set.ADC(cfg.ADC)
		if !ok {
			return nil
		}
		return sensors.NewME2CO(line, cfg.Warmup())
	default:
		return nil
	}
}
