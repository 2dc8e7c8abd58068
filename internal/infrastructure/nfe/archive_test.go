package nfe_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/nfe-api/internal/domain/entity"
	"github.com/jhoicas/nfe-api/internal/infrastructure/nfe"
)

func TestArchiveSink_GuardaYLee(t *testing.T) {
	fs := afero.NewMemMapFs()
	sink := nfe.NewArchiveSink(fs, "/nfe/out")
	inv := &entity.Invoice{AccessKey: expectedKey, XMLSigned: "<NFe/>"}

	resp, err := sink.Submit(context.Background(), inv)
	require.NoError(t, err)
	assert.Nil(t, resp, "el archivo local no autoriza la nota")

	exists, err := afero.Exists(fs, "/nfe/out/"+expectedKey+"-nfe.xml")
	require.NoError(t, err)
	assert.True(t, exists)

	xml, err := sink.Load(expectedKey)
	require.NoError(t, err)
	assert.Equal(t, "<NFe/>", xml)
}

func TestArchiveSink_NoSobrescribe(t *testing.T) {
	sink := nfe.NewArchiveSink(afero.NewMemMapFs(), "out")
	inv := &entity.Invoice{AccessKey: expectedKey, XMLSigned: "<NFe/>"}

	_, err := sink.Submit(context.Background(), inv)
	require.NoError(t, err)
	_, err = sink.Submit(context.Background(), &entity.Invoice{AccessKey: expectedKey, XMLSigned: "<otra/>"})
	assert.Error(t, err)

	xml, err := sink.Load(expectedKey)
	require.NoError(t, err)
	assert.Equal(t, "<NFe/>", xml, "el archivo existente queda intacto")
}

// Sobre el disco real O_EXCL es atómico: de N envíos simultáneos solo uno crea el archivo.
func TestArchiveSink_EnviosConcurrentes(t *testing.T) {
	sink := nfe.NewArchiveSink(nil, t.TempDir())
	const workers = 16

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			inv := &entity.Invoice{AccessKey: expectedKey, XMLSigned: fmt.Sprintf("<NFe n=\"%d\"/>", i)}
			_, errs[i] = sink.Submit(context.Background(), inv)
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
	xml, err := sink.Load(expectedKey)
	require.NoError(t, err)
	assert.Contains(t, xml, "<NFe n=")
}

func TestArchiveSink_RechazaNotaIncompleta(t *testing.T) {
	sink := nfe.NewArchiveSink(afero.NewMemMapFs(), "out")
	_, err := sink.Submit(context.Background(), &entity.Invoice{AccessKey: expectedKey})
	assert.Error(t, err)
}

func TestArchiveSink_ContextoCancelado(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := nfe.NewArchiveSink(afero.NewMemMapFs(), "out")
	_, err := sink.Submit(ctx, &entity.Invoice{AccessKey: expectedKey, XMLSigned: "<NFe/>"})
	assert.ErrorIs(t, err, context.Canceled)
}
