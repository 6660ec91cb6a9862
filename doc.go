// Package hyperplatform loads and unloads a hypervisor driver.
//
// A Driver runs a sequence of stages on Start and tears them down in exactly
// the reverse order, either on Stop or when a later stage fails. Before any
// stage runs, the host is checked against a compatibility Gate and the
// global object constructors are run; the destructors they registered run
// after the last stage is torn down.
//
// # Basic Usage
//
//	cfg, err := config.LoadOrDefault(path)
//	if err != nil {
//		log.Fatal(err)
//	}
//	sys := host.NewSystem()
//	d, _, err := hyperplatform.NewDefault(cfg, host.NewModule("hyperplatform", path), sys)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := d.Start(ctx); err != nil {
//		if errors.Is(err, hyperplatform.ErrCancelled) {
//			log.Fatal("host not supported")
//		}
//		log.Fatal(err)
//	}
//	defer d.Stop(ctx)
//
// # Error Handling
//
// Start returns an *UnsupportedError when the Gate rejects the host and a
// *StageError wrapping the stage's own error when a stage fails.
package hyperplatform
